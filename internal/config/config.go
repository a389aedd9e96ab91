// Package config reads server settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const envPrefix = "FORMDESIGNER_"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
	StorageMemory = "memory"
)

// Config holds every setting of the serve command.
type Config struct {
	Addr           string `validate:"required"`
	Env            string `validate:"oneof=development production test"`
	Storage        string `validate:"oneof=sqlite file memory"`
	DSN            string `validate:"required_if=Storage sqlite"`
	DataDir        string `validate:"required_if=Storage file"`
	LogFile        string
	LogLevel       string        `validate:"omitempty,oneof=debug info warn error"`
	SessionTTL     time.Duration `validate:"min=1s"`
	HistoryLimit   int           `validate:"min=0"`
	MaxBodyBytes   int64         `validate:"min=1024"`
	Theme          string
	ThemeVariant   string
	AllowedOrigins []string
}

// Defaults returns the configuration used when no variable is set.
func Defaults() Config {
	return Config{
		Addr:         ":8080",
		Env:          "development",
		Storage:      StorageSQLite,
		DSN:          "file:formdesigner.db",
		DataDir:      "forms",
		SessionTTL:   30 * time.Minute,
		HistoryLimit: 100,
		MaxBodyBytes: 1 << 20,
	}
}

// Load reads the given .env files (".env" when none are named), then the
// process environment. Missing .env files are ignored; variables already set
// in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", file, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Defaults()
	r := reader{lookup: lookup}

	cfg.Addr = r.string("ADDR", cfg.Addr)
	cfg.Env = strings.ToLower(r.string("ENV", cfg.Env))
	cfg.Storage = strings.ToLower(r.string("STORAGE", cfg.Storage))
	cfg.DSN = r.string("DSN", cfg.DSN)
	cfg.DataDir = r.string("DATA_DIR", cfg.DataDir)
	cfg.LogFile = r.string("LOG_FILE", cfg.LogFile)
	cfg.LogLevel = strings.ToLower(r.string("LOG_LEVEL", cfg.LogLevel))
	cfg.SessionTTL = r.duration("SESSION_TTL", cfg.SessionTTL)
	cfg.HistoryLimit = int(r.int("HISTORY_LIMIT", int64(cfg.HistoryLimit)))
	cfg.MaxBodyBytes = r.int("MAX_BODY_BYTES", cfg.MaxBodyBytes)
	cfg.Theme = r.string("THEME", cfg.Theme)
	cfg.ThemeVariant = r.string("THEME_VARIANT", cfg.ThemeVariant)
	cfg.AllowedOrigins = r.list("ALLOWED_ORIGINS")

	if len(r.errs) > 0 {
		return Config{}, errors.Join(r.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration's constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) raw(key string) (string, bool) {
	value, ok := r.lookup(envPrefix + key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (r *reader) string(key, fallback string) string {
	if value, ok := r.raw(key); ok {
		return value
	}
	return fallback
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s%s: %w", envPrefix, key, err))
		return fallback
	}
	return d
}

func (r *reader) int(key string, fallback int64) int64 {
	value, ok := r.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("config: %s%s: %w", envPrefix, key, err))
		return fallback
	}
	return n
}

func (r *reader) list(key string) []string {
	value, ok := r.raw(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
