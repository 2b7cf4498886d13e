package gallery

import (
	"reflect"
	"testing"

	"certificate-gallery/core"
)

func cert(id, title, date, category string, isDoc bool) core.Certificate {
	return core.Certificate{
		ID:         id,
		Title:      title,
		Issuer:     "Test Issuer",
		Date:       date,
		Category:   category,
		Content:    "aGVsbG8=",
		IsDocument: isDoc,
	}
}

func ids(certs []core.Certificate) []string {
	out := make([]string, len(certs))
	for i := range certs {
		out[i] = certs[i].ID
	}
	return out
}

func TestApply_CloudNewestScenario(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "Docker Cert", "2024-06-01", "Cloud", true),
	}

	got := Apply(certs, Criteria{Category: "Cloud", Sort: SortNewest})
	want := []string{"b", "a"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Apply() order = %v, want %v", ids(got), want)
	}
}

func TestApply_TitleQueryCaseInsensitive(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "Docker Cert", "2024-06-01", "Cloud", true),
	}

	got := Apply(certs, Criteria{TitleQuery: "aws", Category: "all", Sort: SortNewest})
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Apply() = %v, want only certificate a", ids(got))
	}
}

func TestApply_WhitespaceQueryIsNoFilter(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "Docker Cert", "2024-06-01", "Cloud", true),
	}

	got := Apply(certs, Criteria{TitleQuery: "   ", Category: "all", Sort: SortNewest})
	if len(got) != 2 {
		t.Errorf("Apply() with whitespace query returned %d certificates, want 2", len(got))
	}
}

func TestApply_CategoryAllIsIdentity(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "Go Cert", "2023-05-01", "Programming", false),
		cert("c", "Docker Cert", "2024-06-01", "Cloud", true),
	}

	all := Apply(certs, Criteria{Category: "all", Sort: SortNewest})
	none := Apply(certs, Criteria{Sort: SortNewest})
	if !reflect.DeepEqual(ids(all), ids(none)) {
		t.Errorf(`Apply(category="all") = %v, want same as no category filter %v`, ids(all), ids(none))
	}
	if len(all) != len(certs) {
		t.Errorf(`Apply(category="all") dropped certificates: got %d, want %d`, len(all), len(certs))
	}
}

func TestApply_CategoryExactMatchCaseSensitive(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "GCP Cert", "2023-02-01", "cloud", false),
	}

	got := Apply(certs, Criteria{Category: "Cloud", Sort: SortNewest})
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("Apply() category match = %v, want only certificate a", ids(got))
	}
}

func TestApply_DateRange(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "Old", "2020-01-01", "Misc", false),
		cert("b", "Mid", "2022-01-01", "Misc", false),
		cert("c", "New", "2024-01-01", "Misc", false),
	}

	got := Apply(certs, Criteria{StartDate: "2021-01-01", EndDate: "2023-01-01", Sort: SortOldest})
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("Apply() date range = %v, want only certificate b", ids(got))
	}
}

func TestApply_DateBoundsAreInclusive(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "Exact", "2023-01-01", "Misc", false),
	}

	got := Apply(certs, Criteria{StartDate: "2023-01-01", EndDate: "2023-01-01", Sort: SortNewest})
	if len(got) != 1 {
		t.Errorf("Apply() inclusive bounds dropped an exact-match date")
	}
}

func TestApply_UnparseableDateMatchesBothBounds(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "Broken", "not-a-date", "Misc", false),
		cert("b", "Fine", "2022-06-01", "Misc", false),
	}

	got := Apply(certs, Criteria{StartDate: "2022-01-01", EndDate: "2022-12-31", Sort: SortOldest})
	if len(got) != 2 {
		t.Fatalf("Apply() = %v, want unparseable date included alongside b", ids(got))
	}
}

func TestApply_Deterministic(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
		cert("b", "Docker Cert", "2023-01-01", "Cloud", true),
		cert("c", "Go Cert", "2024-06-01", "Programming", false),
	}
	criteria := Criteria{Category: "all", Sort: SortNewest}

	first := Apply(certs, criteria)
	second := Apply(certs, criteria)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Apply() is not deterministic: %v vs %v", ids(first), ids(second))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "B Cert", "2023-01-01", "Misc", false),
		cert("b", "A Cert", "2024-06-01", "Misc", false),
	}
	before := make([]core.Certificate, len(certs))
	copy(before, certs)

	Apply(certs, Criteria{Sort: SortTitleAsc})
	if !reflect.DeepEqual(certs, before) {
		t.Errorf("Apply() mutated its input list")
	}
}

func TestApply_NewestStableOnEqualDates(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "First", "2023-01-01", "Misc", false),
		cert("b", "Second", "2023-01-01", "Misc", false),
		cert("c", "Third", "2024-01-01", "Misc", false),
	}

	got := Apply(certs, Criteria{Sort: SortNewest})
	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Apply() newest order = %v, want %v (input order kept on ties)", ids(got), want)
	}

	// Non-increasing by date across the whole output.
	for i := 1; i < len(got); i++ {
		if sortDate(got[i-1].Date).Before(sortDate(got[i].Date)) {
			t.Errorf("Apply() newest output increases at index %d", i)
		}
	}
}

func TestApply_OldestAscending(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "New", "2024-01-01", "Misc", false),
		cert("b", "Old", "2020-01-01", "Misc", false),
	}

	got := Apply(certs, Criteria{Sort: SortOldest})
	want := []string{"b", "a"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Apply() oldest order = %v, want %v", ids(got), want)
	}
}

func TestApply_TitleSorts(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "banana", "2023-01-01", "Misc", false),
		cert("b", "Apple", "2023-01-01", "Misc", false),
		cert("c", "cherry", "2023-01-01", "Misc", false),
	}

	asc := Apply(certs, Criteria{Sort: SortTitleAsc})
	if want := []string{"b", "a", "c"}; !reflect.DeepEqual(ids(asc), want) {
		t.Errorf("Apply() titleAsc = %v, want %v (case-folded ordering)", ids(asc), want)
	}

	desc := Apply(certs, Criteria{Sort: SortTitleDesc})
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(ids(desc), want) {
		t.Errorf("Apply() titleDesc = %v, want %v", ids(desc), want)
	}
}

func TestApply_TypeIsStablePartition(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "Doc One", "2023-01-01", "Misc", true),
		cert("b", "Img One", "2023-02-01", "Misc", false),
		cert("c", "Doc Two", "2023-03-01", "Misc", true),
		cert("d", "Img Two", "2023-04-01", "Misc", false),
	}

	got := Apply(certs, Criteria{Sort: SortType})
	want := []string{"b", "d", "a", "c"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Apply() type order = %v, want %v (images first, input order within groups)", ids(got), want)
	}
}

func TestApply_EmptyInput(t *testing.T) {
	got := Apply(nil, Criteria{Category: "all", Sort: SortNewest})
	if len(got) != 0 {
		t.Errorf("Apply(nil) = %v, want empty", ids(got))
	}
}

func TestApply_NoMatches(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "AWS Cert", "2023-01-01", "Cloud", false),
	}

	got := Apply(certs, Criteria{TitleQuery: "kubernetes", Sort: SortNewest})
	if len(got) != 0 {
		t.Errorf("Apply() = %v, want empty on no matches", ids(got))
	}
}

func TestParseSortMode(t *testing.T) {
	cases := map[string]SortMode{
		"newest":    SortNewest,
		"oldest":    SortOldest,
		"titleAsc":  SortTitleAsc,
		"titleDesc": SortTitleDesc,
		"type":      SortType,
		"":          SortNewest,
		"bogus":     SortNewest,
	}
	for in, want := range cases {
		if got := ParseSortMode(in); got != want {
			t.Errorf("ParseSortMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategories(t *testing.T) {
	certs := []core.Certificate{
		cert("a", "One", "2023-01-01", "Programming", false),
		cert("b", "Two", "2023-01-01", "Cloud", false),
		cert("c", "Three", "2023-01-01", "Cloud", false),
	}

	got := Categories(certs)
	want := []string{"Cloud", "Programming"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories() = %v, want %v", got, want)
	}
}
