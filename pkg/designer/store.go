package designer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

// DefaultHistoryLimit bounds the undo stack when WithHistoryLimit is not set.
const DefaultHistoryLimit = 50

// Change describes one applied command. Prev and Next are deep copies owned
// by the listener.
type Change struct {
	Prev    DesignerState
	Next    DesignerState
	Command Command
	// SchemaChanged is false for selection and mode commands and for no-ops.
	SchemaChanged bool
}

// Listener observes dispatched commands.
type Listener func(Change)

// Option configures a Store.
type Option func(*Store)

// WithState seeds the store with a full state.
func WithState(state DesignerState) Option {
	return func(s *Store) {
		s.state = state.Clone()
		if !s.state.Mode.Valid() {
			s.state.Mode = ModeDesign
		}
	}
}

// WithSchema seeds the store with a document in design mode.
func WithSchema(doc schema.FormDocument) Option {
	return func(s *Store) {
		s.state = DesignerState{Schema: doc.Clone(), Mode: ModeDesign}
	}
}

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithFieldFactory overrides the factory used by AddDefaultField.
func WithFieldFactory(factory *schema.Factory) Option {
	return func(s *Store) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithHistoryLimit bounds the number of undo steps kept. Zero disables
// history.
func WithHistoryLimit(limit int) Option {
	return func(s *Store) {
		if limit >= 0 {
			s.historyLimit = limit
		}
	}
}

// Store owns a DesignerState and applies commands to it one at a time. The
// zero value is not usable; call New.
type Store struct {
	mu           sync.Mutex
	state        DesignerState
	logger       *zap.Logger
	factory      *schema.Factory
	historyLimit int
	undo         []schema.FormDocument
	redo         []schema.FormDocument

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int

	// Changes are delivered in the order they were applied: each batch takes
	// a ticket under mu and waits for the previous ticket to be delivered.
	deliverMu   sync.Mutex
	deliverCond *sync.Cond
	issued      uint64
	delivered   uint64
}

// New builds a Store holding InitialState unless an option seeds it.
func New(opts ...Option) *Store {
	s := &Store{
		state:        InitialState(),
		logger:       zap.NewNop(),
		factory:      schema.NewFactory(nil),
		historyLimit: DefaultHistoryLimit,
		listeners:    make(map[int]Listener),
	}
	s.deliverCond = sync.NewCond(&s.deliverMu)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// State returns a deep copy of the current state.
func (s *Store) State() DesignerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Schema returns a deep copy of the current document.
func (s *Store) Schema() schema.FormDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Schema.Clone()
}

// Dispatch applies cmds in order and returns the resulting state. Listeners
// run after the lock is released, once per command, and always see changes
// in the order they were applied. A listener must not dispatch to the store
// that notified it.
func (s *Store) Dispatch(cmds ...Command) DesignerState {
	changes := make([]Change, 0, len(cmds))

	s.mu.Lock()
	for _, cmd := range cmds {
		if cmd == nil {
			continue
		}
		prev := s.state
		next, changed := reduce(prev, cmd)
		if changed {
			s.pushUndo(prev.Schema)
			s.redo = nil
		}
		s.state = next
		s.logger.Debug("designer command applied",
			zap.String("command", cmd.Name()),
			zap.Bool("schema_changed", changed),
			zap.Int("fields", len(next.Schema.Fields)),
			zap.String("selected", next.SelectedFieldID),
		)
		changes = append(changes, Change{
			Prev:          prev.Clone(),
			Next:          next.Clone(),
			Command:       cmd,
			SchemaChanged: changed,
		})
	}
	current := s.state.Clone()
	ticket := s.ticket(len(changes))
	s.mu.Unlock()

	s.deliver(ticket, changes)
	return current
}

// AddDefaultField creates a field of type t through the store's factory and
// dispatches AddField with it.
func (s *Store) AddDefaultField(t schema.FieldType) (schema.Field, DesignerState, error) {
	field, err := s.factory.Create(t)
	if err != nil {
		return schema.Field{}, s.State(), err
	}
	return field, s.Dispatch(AddField{Field: field}), nil
}

// Validate runs document validation over the current schema.
func (s *Store) Validate() []string {
	return schema.Validate(s.Schema())
}

// CanUndo reports whether Undo would change the document.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo) > 0
}

// CanRedo reports whether Redo would change the document.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redo) > 0
}

// Undo restores the document that preceded the last schema change. It
// reports false when there is nothing to undo.
func (s *Store) Undo() (DesignerState, bool) {
	return s.travel(&s.undo, s.pushRedo, "undo")
}

// Redo reapplies the last undone schema change.
func (s *Store) Redo() (DesignerState, bool) {
	return s.travel(&s.redo, s.pushUndo, "redo")
}

// Reset replaces the document with the default one and clears history.
func (s *Store) Reset() DesignerState {
	s.mu.Lock()
	prev := s.state
	s.state = InitialState()
	s.undo = nil
	s.redo = nil
	change := Change{
		Prev:          prev.Clone(),
		Next:          s.state.Clone(),
		Command:       SetSchema{Schema: s.state.Schema.Clone()},
		SchemaChanged: true,
	}
	current := s.state.Clone()
	ticket := s.ticket(1)
	s.mu.Unlock()

	s.deliver(ticket, []Change{change})
	return current
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) travel(from *[]schema.FormDocument, push func(schema.FormDocument), direction string) (DesignerState, bool) {
	s.mu.Lock()
	if len(*from) == 0 {
		current := s.state.Clone()
		s.mu.Unlock()
		return current, false
	}
	last := len(*from) - 1
	doc := (*from)[last]
	*from = (*from)[:last]
	push(s.state.Schema)

	prev := s.state
	next := prev
	next.Schema = doc
	if next.SelectedFieldID != "" && doc.IndexOf(next.SelectedFieldID) < 0 {
		next.SelectedFieldID = ""
	}
	s.state = next
	s.logger.Debug("designer history moved", zap.String("direction", direction), zap.Int("remaining", len(*from)))
	change := Change{
		Prev:          prev.Clone(),
		Next:          next.Clone(),
		Command:       SetSchema{Schema: doc.Clone()},
		SchemaChanged: true,
	}
	current := next.Clone()
	ticket := s.ticket(1)
	s.mu.Unlock()

	s.deliver(ticket, []Change{change})
	return current, true
}

// pushUndo records doc. Reduce never mutates the previous schema, so storing
// it without a copy is safe.
func (s *Store) pushUndo(doc schema.FormDocument) {
	if s.historyLimit == 0 {
		return
	}
	s.undo = append(s.undo, doc)
	if overflow := len(s.undo) - s.historyLimit; overflow > 0 {
		s.undo = append([]schema.FormDocument(nil), s.undo[overflow:]...)
	}
}

func (s *Store) pushRedo(doc schema.FormDocument) {
	s.redo = append(s.redo, doc)
}

// ticket reserves the delivery slot for a batch. It must be called with mu
// held; empty batches take no slot.
func (s *Store) ticket(n int) uint64 {
	if n == 0 {
		return 0
	}
	t := s.issued
	s.issued++
	return t
}

// deliver notifies listeners once every earlier batch has been delivered.
func (s *Store) deliver(ticket uint64, changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.deliverMu.Lock()
	for s.delivered != ticket {
		s.deliverCond.Wait()
	}
	s.deliverMu.Unlock()

	defer func() {
		s.deliverMu.Lock()
		s.delivered++
		s.deliverMu.Unlock()
		s.deliverCond.Broadcast()
	}()
	s.notify(changes)
}

func (s *Store) notify(changes []Change) {
	if len(changes) == 0 {
		return
	}
	s.listenersMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	s.listenersMu.RUnlock()

	for _, change := range changes {
		for _, fn := range listeners {
			fn(change)
		}
	}
}
