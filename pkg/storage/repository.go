package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

var (
	// ErrNotFound is returned when no document is stored under an id.
	ErrNotFound = errors.New("storage: document not found")
	// ErrInvalidID is returned for ids that are empty or contain characters
	// outside [A-Za-z0-9_-].
	ErrInvalidID = errors.New("storage: invalid document id")
)

// Record is a persisted form document.
type Record struct {
	ID        string              `json:"id"`
	Document  schema.FormDocument `json:"document"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Summary is the listing view of a Record.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	FieldCount int       `json:"fieldCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Repository persists form documents by id. Save upserts; a zero UpdatedAt
// is replaced with the current time.
type Repository interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, id string) (Record, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// Clock returns the current time. Repositories use it to stamp records.
type Clock func() time.Time

func defaultClock() time.Time {
	return time.Now().UTC()
}

// Option configures a repository.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the time source used to stamp records.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: defaultClock}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// ValidateID reports whether id can be used as a storage key.
func ValidateID(id string) error {
	if id == "" || len(id) > 128 {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
	}
	return nil
}

func summarize(rec Record) Summary {
	return Summary{
		ID:         rec.ID,
		Title:      rec.Document.Title,
		FieldCount: len(rec.Document.Fields),
		UpdatedAt:  rec.UpdatedAt,
	}
}

func stamp(rec Record, clock Clock) Record {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = clock()
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.Document = rec.Document.Clone()
	return rec
}
