package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".json"

// FileRepository stores one <id>.json file per document in a directory.
// Writes go through a temporary file and a rename.
type FileRepository struct {
	mu    sync.RWMutex
	dir   string
	clock Clock
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository creates dir when missing.
func NewFileRepository(dir string, opts ...Option) (*FileRepository, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return &FileRepository{dir: dir, clock: buildOptions(opts).clock}, nil
}

// Dir returns the backing directory.
func (f *FileRepository) Dir() string {
	return f.dir
}

func (f *FileRepository) path(id string) string {
	return filepath.Join(f.dir, id+fileExt)
}

func (f *FileRepository) Save(ctx context.Context, rec Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rec = stamp(rec, f.clock)
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", rec.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+rec.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmpName, f.path(rec.ID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("storage: save %s: %w", rec.ID, err)
	}
	return nil
}

func (f *FileRepository) Load(ctx context.Context, id string) (Record, error) {
	if err := ValidateID(id); err != nil {
		return Record{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.read(id)
}

func (f *FileRepository) read(id string) (Record, error) {
	data, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: load %s: %w", id, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("storage: decode %s: %w", id, err)
	}
	rec.ID = id
	return rec, nil
}

// List skips files that are not valid records.
func (f *FileRepository) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := []Summary{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if ValidateID(id) != nil {
			continue
		}
		rec, err := f.read(id)
		if err != nil {
			continue
		}
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

func (f *FileRepository) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return nil
}
