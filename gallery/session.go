package gallery

import (
	"context"
	"strings"
	"sync"

	"certificate-gallery/core"

	"github.com/sirupsen/logrus"
)

// Session is the observable state container behind a gallery view. It owns
// the loaded certificate list, the filter/sort criteria, and the selection,
// and notifies subscribers after every mutation so a rendering layer can
// re-derive its output. The session is the only writer of its state; a
// mutex keeps it safe to drive from multiple goroutines even though a
// single UI session has no concurrent writers.
type Session struct {
	mu          sync.Mutex
	store       core.CertificateStore
	certs       []core.Certificate
	criteria    Criteria
	selection   *Selection
	shareBase   string
	subscribers []func()
}

// NewSession creates an empty session over the given store. shareBase is
// the external base URL used for share links, e.g. "https://gallery.example".
func NewSession(store core.CertificateStore, shareBase string) *Session {
	return &Session{
		store:     store,
		criteria:  Criteria{Category: core.CategoryAll, Sort: SortNewest},
		selection: NewSelection(),
		shareBase: strings.TrimRight(shareBase, "/"),
	}
}

// Subscribe registers fn to run after every state mutation.
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Load replaces the in-memory list with the store's full contents. The
// selection is pruned against the new list so it never references an id
// that is no longer loaded.
func (s *Session) Load(ctx context.Context) error {
	certs, err := s.store.List(ctx, core.Filter{})
	if err != nil {
		logrus.WithField("error", err).Error("Failed to load certificates")
		return err
	}

	s.mu.Lock()
	s.certs = certs
	present := make(map[string]struct{}, len(certs))
	for i := range certs {
		present[certs[i].ID] = struct{}{}
	}
	var gone []string
	for _, id := range s.selection.IDs() {
		if _, ok := present[id]; !ok {
			gone = append(gone, id)
		}
	}
	s.selection.Prune(gone)
	s.mu.Unlock()

	logrus.WithField("count", len(certs)).Info("Certificates loaded")
	s.notify()
	return nil
}

// Criteria returns the current filter/sort state.
func (s *Session) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// SetCriteria replaces the filter/sort state wholesale.
func (s *Session) SetCriteria(c Criteria) {
	s.mu.Lock()
	s.criteria = c
	s.mu.Unlock()
	s.notify()
}

// SetTitleQuery updates the title search text.
func (s *Session) SetTitleQuery(q string) {
	s.mu.Lock()
	s.criteria.TitleQuery = q
	s.mu.Unlock()
	s.notify()
}

// SetCategory updates the category filter; core.CategoryAll disables it.
func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	s.criteria.Category = category
	s.mu.Unlock()
	s.notify()
}

// SetDateRange updates the date bounds; empty strings disable a bound.
func (s *Session) SetDateRange(start, end string) {
	s.mu.Lock()
	s.criteria.StartDate = start
	s.criteria.EndDate = end
	s.mu.Unlock()
	s.notify()
}

// SetSort updates the sort mode.
func (s *Session) SetSort(mode SortMode) {
	s.mu.Lock()
	s.criteria.Sort = mode
	s.mu.Unlock()
	s.notify()
}

// Certificates returns a copy of the full loaded list.
func (s *Session) Certificates() []core.Certificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Certificate, len(s.certs))
	copy(out, s.certs)
	return out
}

// Displayed derives the displayed list from the loaded certificates and the
// current criteria. The derivation is deterministic and recomputed on every
// call; it never mutates the loaded list.
func (s *Session) Displayed() []core.Certificate {
	s.mu.Lock()
	certs := make([]core.Certificate, len(s.certs))
	copy(certs, s.certs)
	criteria := s.criteria
	s.mu.Unlock()
	return Apply(certs, criteria)
}

// DisplayedIDs returns the ids of the displayed list, in display order.
func (s *Session) DisplayedIDs() []string {
	displayed := s.Displayed()
	ids := make([]string, len(displayed))
	for i := range displayed {
		ids[i] = displayed[i].ID
	}
	return ids
}

// Categories returns the sorted distinct categories of the loaded list.
func (s *Session) Categories() []string {
	s.mu.Lock()
	certs := make([]core.Certificate, len(s.certs))
	copy(certs, s.certs)
	s.mu.Unlock()
	return Categories(certs)
}

// ToggleSelect flips the selection state of a single certificate.
func (s *Session) ToggleSelect(id string) {
	s.mu.Lock()
	s.selection.Toggle(id)
	s.mu.Unlock()
	s.notify()
}

// SelectAll toggles between selecting every displayed certificate and
// clearing the selection, judged against the displayed (filtered) list.
func (s *Session) SelectAll() {
	ids := s.DisplayedIDs()
	s.mu.Lock()
	s.selection.SelectAll(ids)
	s.mu.Unlock()
	s.notify()
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection.Clear()
	s.mu.Unlock()
	s.notify()
}

// Selected returns the currently selected ids.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Has(id)
}

// Create persists a new certificate and appends it to the loaded list.
func (s *Session) Create(ctx context.Context, cert core.Certificate) (string, error) {
	if err := cert.Validate(); err != nil {
		return "", err
	}
	id, err := s.store.Create(ctx, &cert)
	if err != nil {
		logrus.WithField("error", err).Error("Failed to create certificate")
		return "", err
	}
	cert.ID = id

	s.mu.Lock()
	s.certs = append(s.certs, cert)
	s.mu.Unlock()
	s.notify()
	return id, nil
}

// Update patches a certificate in the store and mirrors the change in the
// loaded list on success.
func (s *Session) Update(ctx context.Context, id string, patch core.Update) error {
	if err := s.store.Update(ctx, id, patch); err != nil {
		logrus.WithFields(logrus.Fields{
			"certificate_id": id,
			"error":          err,
		}).Error("Failed to update certificate")
		return err
	}

	s.mu.Lock()
	for i := range s.certs {
		if s.certs[i].ID == id {
			s.certs[i].Apply(patch)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// Delete removes the given certificates as one batch. On success the loaded
// list and the selection are updated in the same critical section, so no
// observer sees one reflect the removal without the other. On failure both
// are left untouched.
func (s *Session) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return core.ErrNoIDs
	}

	if _, err := s.store.Delete(ctx, ids); err != nil {
		logrus.WithFields(logrus.Fields{
			"count": len(ids),
			"error": err,
		}).Error("Failed to delete certificates")
		return err
	}

	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		removed[id] = struct{}{}
	}

	s.mu.Lock()
	kept := make([]core.Certificate, 0, len(s.certs))
	for i := range s.certs {
		if _, ok := removed[s.certs[i].ID]; !ok {
			kept = append(kept, s.certs[i])
		}
	}
	s.certs = kept
	s.selection.Prune(ids)
	s.mu.Unlock()

	logrus.WithField("count", len(ids)).Info("Certificates deleted")
	s.notify()
	return nil
}

// DeleteSelected removes every selected certificate as one batch.
func (s *Session) DeleteSelected(ctx context.Context) error {
	return s.Delete(ctx, s.Selected())
}

// ExportSelected bundles the selected certificates into a zip archive.
// The selection is left untouched, whether the build succeeds or fails.
func (s *Session) ExportSelected() ([]byte, error) {
	s.mu.Lock()
	certs := make([]core.Certificate, len(s.certs))
	copy(certs, s.certs)
	ids := s.selection.IDs()
	s.mu.Unlock()
	return BuildArchive(certs, ids)
}

// ShareLink derives the stable share URL for a certificate id.
func (s *Session) ShareLink(id string) string {
	return s.shareBase + "/certificate/" + id
}
