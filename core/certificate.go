package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by stores when no certificate matches the given id.
var ErrNotFound = errors.New("certificate not found")

// ErrNoIDs is returned by bulk operations invoked with an empty id set.
var ErrNoIDs = errors.New("no certificate ids given")

// CategoryAll is the reserved category value that disables category filtering.
const CategoryAll = "all"

type (
	// Certificate pairs gallery metadata with a base64-encoded image or PDF
	// payload. The store assigns ID on creation; it never changes afterwards.
	Certificate struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Issuer   string `json:"issuer"`
		Category string `json:"category"`

		// Date is kept verbatim as submitted (calendar date, no time
		// component) and parsed on comparison. See ParseDate.
		Date string `json:"date"`

		// Content holds the base64-encoded payload. Omitted from list
		// responses to keep them light.
		Content string `json:"fileBase64,omitempty"`

		// IsDocument distinguishes PDF payloads from raster images. Derived
		// once from the upload's media type, never recomputed.
		IsDocument bool `json:"isPdf"`

		// PageCount is the PDF page count extracted at upload, 0 for images.
		PageCount int `json:"pageCount,omitempty"`

		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// Filter narrows a store listing. Stores may apply it server-side as an
	// optimization; callers re-apply the gallery pipeline regardless, so a
	// store that ignores the filter entirely is still correct.
	Filter struct {
		Title     string
		Category  string
		StartDate string
		EndDate   string
	}

	// Update is a partial certificate patch. Nil fields are left unchanged.
	// When Content is replaced the caller re-derives IsDocument and
	// PageCount and sets them alongside.
	Update struct {
		Title      *string `json:"title"`
		Issuer     *string `json:"issuer"`
		Date       *string `json:"date"`
		Category   *string `json:"category"`
		Content    *string `json:"fileBase64"`
		IsDocument *bool   `json:"isPdf"`
		PageCount  *int    `json:"pageCount"`
	}

	// CertificateStore defines the persistence layer for certificates.
	CertificateStore interface {
		// List returns all certificates matching the filter, content included.
		List(ctx context.Context, filter Filter) ([]Certificate, error)

		// FindID returns a single certificate by its id.
		FindID(ctx context.Context, id string) (*Certificate, error)

		// Create persists a new certificate and returns its assigned id.
		Create(ctx context.Context, cert *Certificate) (string, error)

		// Update applies a partial patch. Fails with ErrNotFound for an
		// unknown id.
		Update(ctx context.Context, id string, patch Update) error

		// Delete removes every certificate in ids as one batch and returns
		// the number removed. Fails with ErrNoIDs on an empty set and with
		// ErrNotFound when no id matches.
		Delete(ctx context.Context, ids []string) (int, error)
	}
)

// Validate checks the fields required on creation.
func (c *Certificate) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"title", c.Title},
		{"issuer", c.Issuer},
		{"date", c.Date},
		{"category", c.Category},
		{"fileBase64", c.Content},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("missing required field %s", f.name)
		}
	}
	return nil
}

// FileExt returns the export file extension for the payload type.
func (c *Certificate) FileExt() string {
	if c.IsDocument {
		return "pdf"
	}
	return "jpg"
}

// MediaType returns the MIME type used when serving the payload.
func (c *Certificate) MediaType() string {
	if c.IsDocument {
		return "application/pdf"
	}
	return "image/jpeg"
}

// Apply patches the certificate in place.
func (c *Certificate) Apply(patch Update) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Issuer != nil {
		c.Issuer = *patch.Issuer
	}
	if patch.Date != nil {
		c.Date = *patch.Date
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Content != nil {
		c.Content = *patch.Content
		if patch.IsDocument != nil {
			c.IsDocument = *patch.IsDocument
		}
		if patch.PageCount != nil {
			c.PageCount = *patch.PageCount
		}
	}
}

// ParseDate parses a stored certificate date. Dates are kept as submitted,
// so a record may carry a value no layout accepts; ok reports whether the
// parse succeeded and callers decide how to treat the failure.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Match reports whether the certificate passes the filter. A certificate
// whose date cannot be parsed matches both date bounds rather than being
// hidden by them.
func (f Filter) Match(c *Certificate) bool {
	if q := strings.TrimSpace(f.Title); q != "" {
		if !strings.Contains(strings.ToLower(c.Title), strings.ToLower(q)) {
			return false
		}
	}
	if f.Category != "" && f.Category != CategoryAll && c.Category != f.Category {
		return false
	}
	date, dateOK := ParseDate(c.Date)
	if f.StartDate != "" {
		if start, ok := ParseDate(f.StartDate); ok && dateOK && date.Before(start) {
			return false
		}
	}
	if f.EndDate != "" {
		if end, ok := ParseDate(f.EndDate); ok && dateOK && date.After(end) {
			return false
		}
	}
	return true
}
