// Package gallery implements the view-session core of the certificate
// gallery: the filter/sort pipeline that derives the displayed list, the
// multi-select state, and the bulk operations layered on top. It has no
// dependency on HTTP or any rendering framework.
package gallery

import (
	"sort"
	"strings"
	"time"

	"certificate-gallery/core"
)

// SortMode selects one of the pipeline's total-order comparators.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortOldest    SortMode = "oldest"
	SortTitleAsc  SortMode = "titleAsc"
	SortTitleDesc SortMode = "titleDesc"
	SortType      SortMode = "type"
)

// ParseSortMode maps a wire value to a SortMode, defaulting to newest.
func ParseSortMode(s string) SortMode {
	switch SortMode(s) {
	case SortOldest, SortTitleAsc, SortTitleDesc, SortType:
		return SortMode(s)
	default:
		return SortNewest
	}
}

// Criteria is the current filter and sort state of the gallery view.
type Criteria struct {
	TitleQuery string
	Category   string
	StartDate  string
	EndDate    string
	Sort       SortMode
}

// Filter converts the criteria into a store filter, letting stores push the
// narrowing steps down as an optimization.
func (c Criteria) Filter() core.Filter {
	return core.Filter{
		Title:     c.TitleQuery,
		Category:  c.Category,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
}

// Apply derives the displayed list from certs and the criteria. The input
// slice is never mutated; filters run in a fixed order and all sorts are
// stable, so equal elements keep their input order.
func Apply(certs []core.Certificate, criteria Criteria) []core.Certificate {
	out := make([]core.Certificate, 0, len(certs))
	filter := criteria.Filter()
	for i := range certs {
		if filter.Match(&certs[i]) {
			out = append(out, certs[i])
		}
	}
	sortCertificates(out, criteria.Sort)
	return out
}

func sortCertificates(certs []core.Certificate, mode SortMode) {
	switch mode {
	case SortOldest:
		sort.SliceStable(certs, func(i, j int) bool {
			return sortDate(certs[i].Date).Before(sortDate(certs[j].Date))
		})
	case SortTitleAsc:
		sort.SliceStable(certs, func(i, j int) bool {
			return compareTitles(certs[i].Title, certs[j].Title) < 0
		})
	case SortTitleDesc:
		sort.SliceStable(certs, func(i, j int) bool {
			return compareTitles(certs[j].Title, certs[i].Title) < 0
		})
	case SortType:
		// Stable partition: images first, documents after, no secondary key.
		sort.SliceStable(certs, func(i, j int) bool {
			return !certs[i].IsDocument && certs[j].IsDocument
		})
	default:
		sort.SliceStable(certs, func(i, j int) bool {
			return sortDate(certs[j].Date).Before(sortDate(certs[i].Date))
		})
	}
}

// sortDate resolves a stored date for ordering. Unparseable dates compare
// as the zero time so they order deterministically instead of failing.
func sortDate(s string) time.Time {
	t, _ := core.ParseDate(s)
	return t
}

func compareTitles(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Categories returns the sorted distinct categories present in certs, as
// offered by the gallery's category dropdown.
func Categories(certs []core.Certificate) []string {
	seen := make(map[string]struct{}, len(certs))
	out := make([]string, 0, len(certs))
	for i := range certs {
		if _, ok := seen[certs[i].Category]; ok {
			continue
		}
		seen[certs[i].Category] = struct{}{}
		out = append(out, certs[i].Category)
	}
	sort.Strings(out)
	return out
}
