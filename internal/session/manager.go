package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/schema"
	"github.com/goliatone/go-formdesigner/pkg/storage"
)

const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
	defaultSaveTimeout     = 5 * time.Second
)

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets how long an idle session stays open.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCleanupInterval sets how often expired sessions are evicted.
func WithCleanupInterval(interval time.Duration) Option {
	return func(m *Manager) {
		if interval > 0 {
			m.cleanup = interval
		}
	}
}

// WithLogger sets the manager logger. Stores inherit a named child.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithStoreOptions are applied to every designer store the manager opens.
func WithStoreOptions(opts ...designer.Option) Option {
	return func(m *Manager) {
		m.storeOpts = append(m.storeOpts, opts...)
	}
}

// WithIDSource overrides document id generation.
func WithIDSource(src func() string) Option {
	return func(m *Manager) {
		if src != nil {
			m.newID = src
		}
	}
}

// Manager keeps recently used documents open in memory, keyed by document
// id, and writes them back to the repository. Idle sessions expire after the
// TTL; expiry and Close save any unsaved changes.
type Manager struct {
	repo      storage.Repository
	logger    *zap.Logger
	ttl       time.Duration
	cleanup   time.Duration
	storeOpts []designer.Option
	newID     func() string

	openMu   sync.Mutex
	sessions *cache.Cache
}

// NewManager constructs a Manager over repo.
func NewManager(repo storage.Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:    repo,
		logger:  zap.NewNop(),
		ttl:     DefaultTTL,
		cleanup: DefaultCleanupInterval,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.sessions = cache.New(m.ttl, m.cleanup)
	m.sessions.OnEvicted(m.evicted)
	return m
}

// Create stores doc under a fresh id and opens it. A nil doc starts from the
// default document.
func (m *Manager) Create(ctx context.Context, doc *schema.FormDocument) (*Session, error) {
	initial := schema.DefaultDocument()
	if doc != nil {
		initial = doc.Clone()
	}
	id := m.newID()
	if err := m.repo.Save(ctx, storage.Record{ID: id, Document: initial}); err != nil {
		return nil, fmt.Errorf("session: create: %w", err)
	}

	m.openMu.Lock()
	defer m.openMu.Unlock()
	sess := m.open(id, initial)
	m.logger.Info("session created", zap.String("document_id", id))
	return sess, nil
}

// Get returns the open session for id, loading it from the repository when
// needed. It returns storage.ErrNotFound for unknown ids.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.lookup(ctx, id, false)
}

// Open is Get, except that an unknown id starts a new default document
// stored under that id.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	return m.lookup(ctx, id, true)
}

func (m *Manager) lookup(ctx context.Context, id string, create bool) (*Session, error) {
	if err := storage.ValidateID(id); err != nil {
		return nil, err
	}
	if sess, ok := m.cached(id); ok {
		return sess, nil
	}

	m.openMu.Lock()
	defer m.openMu.Unlock()
	if sess, ok := m.cached(id); ok {
		return sess, nil
	}

	rec, err := m.repo.Load(ctx, id)
	switch {
	case err == nil:
		m.logger.Debug("session loaded", zap.String("document_id", id))
		return m.open(id, rec.Document), nil
	case errors.Is(err, storage.ErrNotFound) && create:
		doc := schema.DefaultDocument()
		if err := m.repo.Save(ctx, storage.Record{ID: id, Document: doc}); err != nil {
			return nil, fmt.Errorf("session: create %s: %w", id, err)
		}
		m.logger.Info("session created", zap.String("document_id", id))
		return m.open(id, doc), nil
	default:
		return nil, err
	}
}

// cached refreshes the expiry of a hit.
func (m *Manager) cached(id string) (*Session, bool) {
	value, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}
	sess := value.(*Session)
	m.sessions.SetDefault(id, sess)
	return sess, true
}

// open must be called with openMu held.
func (m *Manager) open(id string, doc schema.FormDocument) *Session {
	opts := append([]designer.Option{
		designer.WithLogger(m.logger.Named("designer").With(zap.String("document_id", id))),
	}, m.storeOpts...)
	opts = append(opts, designer.WithSchema(doc))
	sess := newSession(id, designer.New(opts...))
	m.sessions.SetDefault(id, sess)
	return sess
}

// Dispatch applies cmds to the session for id and saves the document when
// the schema changed. Save failures are logged; the in-memory state stays
// ahead and is saved again on the next change, Close or eviction.
func (m *Manager) Dispatch(ctx context.Context, id string, cmds ...designer.Command) (designer.DesignerState, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return designer.DesignerState{}, err
	}
	state := sess.store.Dispatch(cmds...)
	m.persist(ctx, sess)
	return state, nil
}

// AddField appends a default field of type t to the document.
func (m *Manager) AddField(ctx context.Context, id string, t schema.FieldType) (schema.Field, designer.DesignerState, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return schema.Field{}, designer.DesignerState{}, err
	}
	field, state, err := sess.store.AddDefaultField(t)
	if err != nil {
		return schema.Field{}, state, err
	}
	m.persist(ctx, sess)
	return field, state, nil
}

// Undo reverts the last schema change of the document.
func (m *Manager) Undo(ctx context.Context, id string) (designer.DesignerState, bool, error) {
	return m.travel(ctx, id, (*designer.Store).Undo)
}

// Redo reapplies the last undone change.
func (m *Manager) Redo(ctx context.Context, id string) (designer.DesignerState, bool, error) {
	return m.travel(ctx, id, (*designer.Store).Redo)
}

func (m *Manager) travel(ctx context.Context, id string, step func(*designer.Store) (designer.DesignerState, bool)) (designer.DesignerState, bool, error) {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return designer.DesignerState{}, false, err
	}
	state, moved := step(sess.store)
	if moved {
		m.persist(ctx, sess)
	}
	return state, moved, nil
}

// Close saves pending changes and drops the session from memory. Closing an
// id that is not open is a no-op.
func (m *Manager) Close(id string) {
	m.sessions.Delete(id)
}

// Delete removes the document from memory and from the repository.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := storage.ValidateID(id); err != nil {
		return storage.ErrNotFound
	}
	if value, ok := m.sessions.Get(id); ok {
		sess := value.(*Session)
		// Wait for an in-flight save so it cannot recreate the document.
		sess.saveMu.Lock()
		sess.markDeleted()
		sess.saveMu.Unlock()
		m.sessions.Delete(id)
	}
	return m.repo.Delete(ctx, id)
}

// List returns the stored documents.
func (m *Manager) List(ctx context.Context) ([]storage.Summary, error) {
	return m.repo.List(ctx)
}

// Len reports how many sessions are open.
func (m *Manager) Len() int {
	return m.sessions.ItemCount()
}

// Flush saves every open session with unsaved changes and closes them all.
func (m *Manager) Flush(ctx context.Context) error {
	var errs []error
	for id, item := range m.sessions.Items() {
		sess := item.Object.(*Session)
		if err := m.save(ctx, sess); err != nil {
			errs = append(errs, fmt.Errorf("session: flush %s: %w", id, err))
		}
	}
	m.sessions.Flush()
	return errors.Join(errs...)
}

func (m *Manager) persist(ctx context.Context, sess *Session) {
	if err := m.save(ctx, sess); err != nil {
		m.logger.Error("session save failed", zap.String("document_id", sess.ID), zap.Error(err))
	}
}

func (m *Manager) save(ctx context.Context, sess *Session) error {
	sess.saveMu.Lock()
	defer sess.saveMu.Unlock()
	if !sess.takeDirty() {
		return nil
	}
	if err := m.repo.Save(ctx, storage.Record{ID: sess.ID, Document: sess.store.Schema()}); err != nil {
		sess.markDirty()
		return err
	}
	return nil
}

func (m *Manager) evicted(id string, value any) {
	sess, ok := value.(*Session)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), defaultSaveTimeout)
	defer cancel()
	if err := m.save(ctx, sess); err != nil {
		m.logger.Error("session save on eviction failed", zap.String("document_id", id), zap.Error(err))
		return
	}
	m.logger.Debug("session closed", zap.String("document_id", id))
}
