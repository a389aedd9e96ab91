package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formdesigner/internal/config"
	"github.com/goliatone/go-formdesigner/internal/logging"
	"github.com/goliatone/go-formdesigner/internal/server"
	"github.com/goliatone/go-formdesigner/internal/session"
	"github.com/goliatone/go-formdesigner/pkg/designer"
	"github.com/goliatone/go-formdesigner/pkg/renderers/html"
	"github.com/goliatone/go-formdesigner/pkg/storage"
)

func newServeCommand(app *App) *cobra.Command {
	var (
		envFiles []string
		addr     string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket designer API",
		Long: `Serve reads its settings from FORMDESIGNER_* environment variables,
optionally seeded from .env files: ADDR, ENV, STORAGE (sqlite, file or memory),
DSN, DATA_DIR, LOG_FILE, LOG_LEVEL, SESSION_TTL, HISTORY_LIMIT,
MAX_BODY_BYTES, THEME, THEME_VARIANT and ALLOWED_ORIGINS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger, closeLog, err := logging.New(logging.Options{
				Env:     cfg.Env,
				Level:   cfg.LogLevel,
				File:    cfg.LogFile,
				Console: app.Err,
			})
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringArrayVar(&envFiles, "env-file", nil, "dotenv file to load, repeatable (default .env)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides FORMDESIGNER_ADDR")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	manager := session.NewManager(repo,
		session.WithTTL(cfg.SessionTTL),
		session.WithLogger(logger.Named("session")),
		session.WithStoreOptions(designer.WithHistoryLimit(cfg.HistoryLimit)),
	)

	preview, err := html.New(html.WithThemeSelector(
		html.NewManifestSelector(html.DefaultManifest()),
		cfg.Theme,
		cfg.ThemeVariant,
	))
	if err != nil {
		return err
	}

	srv := server.New(manager,
		server.WithLogger(logger.Named("http")),
		server.WithPreviewRenderer(preview),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
	)
	logger.Info("formdesigner starting",
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)
	return srv.Run(ctx, cfg.Addr)
}

func openRepository(ctx context.Context, cfg config.Config) (storage.Repository, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		repo, err := storage.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	case config.StorageFile:
		repo, err := storage.NewFileRepository(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	case config.StorageMemory:
		return storage.NewMemoryRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
