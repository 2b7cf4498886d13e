package gallery

// Selection is the ephemeral multi-select state of a gallery view: a set of
// certificate ids. It is not persisted and starts empty for every session.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle adds id when absent and removes it when present.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// SelectAll is the single select-all/deselect-all toggle. When the selection
// already covers as many ids as are displayed it clears; otherwise it becomes
// exactly the displayed ids. The displayed (filtered) list is the reference,
// not the full store.
func (s *Selection) SelectAll(displayedIDs []string) {
	if len(s.ids) == len(displayedIDs) && len(displayedIDs) > 0 {
		s.Clear()
		return
	}
	s.ids = make(map[string]struct{}, len(displayedIDs))
	for _, id := range displayedIDs {
		s.ids[id] = struct{}{}
	}
}

// Prune drops every id in removedIDs from the selection. Called after any
// delete so the selection never references a certificate that is gone.
func (s *Selection) Prune(removedIDs []string) {
	for _, id := range removedIDs {
		delete(s.ids, id)
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// IDs returns the selected ids in unspecified order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
