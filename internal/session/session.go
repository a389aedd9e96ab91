package session

import (
	"sync"

	"github.com/goliatone/go-formdesigner/pkg/designer"
)

// Session is an open document: a designer store plus persistence
// bookkeeping. All edits go through the Manager so they are saved.
type Session struct {
	ID    string
	store *designer.Store

	mu      sync.Mutex
	dirty   bool
	deleted bool

	// saveMu serialises snapshot-and-save so an older snapshot can never
	// land in the repository after a newer one.
	saveMu sync.Mutex
}

func newSession(id string, store *designer.Store) *Session {
	sess := &Session{ID: id, store: store}
	store.Subscribe(func(change designer.Change) {
		if change.SchemaChanged {
			sess.markDirty()
		}
	})
	return sess
}

// State returns a snapshot of the session's designer state.
func (s *Session) State() designer.DesignerState {
	return s.store.State()
}

// Subscribe forwards store changes to fn until the returned function is
// called.
func (s *Session) Subscribe(fn designer.Listener) func() {
	return s.store.Subscribe(fn)
}

// CanUndo reports whether the session has history to undo.
func (s *Session) CanUndo() bool {
	return s.store.CanUndo()
}

// CanRedo reports whether an undone change can be reapplied.
func (s *Session) CanRedo() bool {
	return s.store.CanRedo()
}

// Validate reports validation messages for the current document.
func (s *Session) Validate() []string {
	return s.store.Validate()
}

func (s *Session) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}

// takeDirty clears and returns the dirty flag. Deleted sessions never
// report dirty.
func (s *Session) takeDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirty := s.dirty && !s.deleted
	s.dirty = false
	return dirty
}

func (s *Session) markDeleted() {
	s.mu.Lock()
	s.deleted = true
	s.dirty = false
	s.mu.Unlock()
}
