package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdesigner/pkg/schema"
)

var (
	// ErrEmptyDocument is returned for blank input.
	ErrEmptyDocument = errors.New("loader: document is empty")
	// ErrInvalidDocument is returned when input is neither JSON nor YAML.
	ErrInvalidDocument = errors.New("loader: invalid JSON or YAML")
	// ErrDuplicateFieldID is returned when two fields share an id.
	ErrDuplicateFieldID = errors.New("loader: duplicate field id")
	// ErrHTTPDisabled is returned for URL sources when no client is set.
	ErrHTTPDisabled = errors.New("loader: http support disabled")
)

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the filesystem used for SourceKindFS sources.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables URL sources using client. The client is copied.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		if client == nil {
			return
		}
		clone := *client
		l.http = &clone
	}
}

// WithRequestTimeout bounds remote fetches. It also enables URL sources with
// a default client when none was configured.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// Loader reads form documents from files, an fs.FS, or HTTP.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// New constructs a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.http == nil && l.timeout > 0 {
		l.http = &http.Client{Timeout: l.timeout}
	}
	return l
}

// Load fetches the document behind src and parses it.
func (l *Loader) Load(ctx context.Context, src Source) (schema.FormDocument, error) {
	if src == nil {
		return schema.FormDocument{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = readFile(ctx, src.Location())
	case SourceKindFS:
		data, err = readFromFS(ctx, l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return schema.FormDocument{}, ErrHTTPDisabled
		}
		data, err = readHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.FormDocument{}, fmt.Errorf("loader: read %s: %w", src.Location(), err)
	}
	return Parse(data, src.Location())
}

// LoadFile reads and parses a document on disk.
func LoadFile(ctx context.Context, path string) (schema.FormDocument, error) {
	return New().Load(ctx, SourceFromFile(path))
}

// LoadFS walks fsys and parses every .json, .yaml and .yml file. The result is
// keyed by path. A nil fsys yields an empty map.
func LoadFS(fsys fs.FS) (map[string]schema.FormDocument, error) {
	docs := make(map[string]schema.FormDocument)
	if fsys == nil {
		return docs, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !IsDocumentFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", path, err)
		}
		doc, err := Parse(data, path)
		if err != nil {
			return err
		}
		docs[path] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Paths returns the keys of docs in lexical order.
func Paths(docs map[string]schema.FormDocument) []string {
	paths := make([]string, 0, len(docs))
	for path := range docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// IsDocumentFile reports whether path has a document extension.
func IsDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Parse decodes a document from JSON, falling back to YAML. source is only
// used in error messages. The decoded document is structurally sound: every
// field carries props matching its type and ids are unique. Semantic checks
// are left to schema.Validate.
func Parse(data []byte, source string) (schema.FormDocument, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return schema.FormDocument{}, fmt.Errorf("%w: %s", ErrEmptyDocument, source)
	}

	var doc schema.FormDocument
	jsonErr := json.Unmarshal(trimmed, &doc)
	if jsonErr != nil {
		if structural(jsonErr) {
			return schema.FormDocument{}, fmt.Errorf("loader: parse %s: %w", source, jsonErr)
		}
		doc = schema.FormDocument{}
		if yamlErr := yaml.Unmarshal(trimmed, &doc); yamlErr != nil {
			if structural(yamlErr) {
				return schema.FormDocument{}, fmt.Errorf("loader: parse %s: %w", source, yamlErr)
			}
			return schema.FormDocument{}, fmt.Errorf("%w: %s", ErrInvalidDocument, source)
		}
	}

	if err := normalise(&doc, source); err != nil {
		return schema.FormDocument{}, err
	}
	return doc, nil
}

func structural(err error) bool {
	return errors.Is(err, schema.ErrUnknownFieldType) || errors.Is(err, schema.ErrPropsMismatch)
}

func normalise(doc *schema.FormDocument, source string) error {
	if doc.SchemaVersion == 0 {
		doc.SchemaVersion = schema.CurrentSchemaVersion
	}
	if doc.Fields == nil {
		doc.Fields = []schema.Field{}
	}
	if err := Check(*doc); err != nil {
		return fmt.Errorf("%w in %s", err, source)
	}
	return nil
}

// Check reports structural defects that commands cannot repair: a field
// whose props do not match its type, or two fields sharing an id. Blank ids
// are left to schema.Validate.
func Check(doc schema.FormDocument) error {
	seen := make(map[string]struct{}, len(doc.Fields))
	for idx, field := range doc.Fields {
		if !field.Type.Valid() {
			return fmt.Errorf("field %d: %w %q", idx, schema.ErrUnknownFieldType, field.Type)
		}
		if field.Props != nil && field.Props.FieldType() != field.Type {
			return fmt.Errorf("field %d: %w", idx, schema.ErrPropsMismatch)
		}
		if field.ID == "" {
			continue
		}
		if _, exists := seen[field.ID]; exists {
			return fmt.Errorf("%w %q", ErrDuplicateFieldID, field.ID)
		}
		seen[field.ID] = struct{}{}
	}
	return nil
}
