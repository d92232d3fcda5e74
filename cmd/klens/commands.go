package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"klens/internal/api"
	"klens/internal/api/handlers"
	"klens/internal/repository"
	"klens/internal/service"
	"klens/internal/storage"
	"klens/pkg/auth"
	"klens/pkg/config"
	"klens/pkg/logger"
	"klens/pkg/postgres"
	"klens/pkg/sqlite"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the retention sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return serve(cfg, appLogger)
		},
	}
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one retention sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx := cmd.Context()
			paths, err := openPaths(cfg)
			if err != nil {
				return err
			}
			store := openStore(ctx, cfg, appLogger)
			if store != nil {
				defer store.Close()
			}

			result := service.NewRetentionService(paths, store, cfg.Retention.MaxAge, cfg.Retention.Interval, appLogger).RunOnce(ctx)
			fmt.Printf("scanned=%d deleted=%d errors=%d duration=%s\n", result.Scanned, result.Deleted, result.Errors, result.Duration)
			return nil
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token signed with ADMIN_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Admin.JWTSecret == "" {
				return fmt.Errorf("ADMIN_JWT_SECRET is not set")
			}

			token, err := auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL).GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&subject, "subject", "s", "admin", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to ADMIN_JWT_TTL_HOURS)")
	return cmd
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logger.Level, cfg.Logger.File); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, logger.Get(), nil
}

func openPaths(cfg *config.Config) (*storage.Paths, error) {
	paths, err := storage.NewPaths(cfg.Storage.StagingDir, cfg.Storage.FinalDir)
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	return paths, nil
}

// openStore returns nil when the metadata store is disabled or unavailable;
// the service then runs without persistence.
func openStore(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) repository.DocumentStore {
	switch cfg.Metadata.Driver {
	case config.MetadataDriverNone:
		appLogger.Info("Metadata store disabled")
		return nil

	case config.MetadataDriverPostgres:
		pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Warn("Metadata store unavailable, continuing without it", zap.Error(err))
			return nil
		}
		repo, err := repository.NewPostgresDocumentRepository(ctx, pool, appLogger)
		if err != nil {
			pool.Close()
			appLogger.Warn("Metadata store unavailable, continuing without it", zap.Error(err))
			return nil
		}
		return repo

	case config.MetadataDriverSQLite:
		db, err := sqlite.Open(ctx, cfg.Metadata.SQLitePath, appLogger)
		if err != nil {
			appLogger.Warn("Metadata store unavailable, continuing without it", zap.Error(err))
			return nil
		}
		repo, err := repository.NewSQLiteDocumentRepository(ctx, db, appLogger)
		if err != nil {
			db.Close()
			appLogger.Warn("Metadata store unavailable, continuing without it", zap.Error(err))
			return nil
		}
		return repo
	}

	appLogger.Warn("Unknown metadata driver, continuing without a metadata store",
		zap.String("driver", cfg.Metadata.Driver),
	)
	return nil
}

// openCompleter returns nil when no GigaChat key is configured or the client
// cannot authenticate; classification then always falls back.
func openCompleter(ctx context.Context, cfg *config.Config, appLogger *zap.Logger) *service.GigaChatCompleter {
	if !cfg.GigaChat.Enabled() {
		appLogger.Info("Classifier disabled: GIGACHAT_API_KEY is not set")
		return nil
	}

	completer, err := service.NewGigaChatCompleter(ctx, &cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Warn("Classifier unavailable, documents will use fallback metadata", zap.Error(err))
		return nil
	}
	return completer
}

func serve(cfg *config.Config, appLogger *zap.Logger) error {
	appLogger.Info("Starting K-Lens service", zap.String("version", version))
	ctx := context.Background()

	paths, err := openPaths(cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare storage directories: %w", err)
	}

	store := openStore(ctx, cfg, appLogger)

	var classifier *service.ClassifierService
	if completer := openCompleter(ctx, cfg, appLogger); completer != nil {
		defer completer.Close()
		classifier = service.NewClassifierService(completer, appLogger)
	} else {
		classifier = service.NewClassifierService(nil, appLogger)
	}

	extractor := service.NewTextExtractor(cfg.Extraction.PDFText, appLogger)
	ingestion := service.NewIngestionService(paths, store, classifier, extractor, appLogger)

	retention := service.NewRetentionService(paths, store, cfg.Retention.MaxAge, cfg.Retention.Interval, appLogger)
	retention.Start(ctx)

	var (
		adminHandler *handlers.AdminHandler
		jwtManager   *auth.JWTManager
	)
	if cfg.Admin.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
		adminHandler = handlers.NewAdminHandler(store, retention, appLogger)
	}

	app := api.SetupRouter(
		&cfg.Server,
		paths.FinalDir(),
		handlers.NewDocumentHandler(ingestion, appLogger),
		handlers.NewSystemHandler(classifier, store),
		adminHandler,
		jwtManager,
		appLogger,
	)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}

	retention.Stop()

	if store != nil {
		if err := store.Close(); err != nil {
			appLogger.Error("Failed to close metadata store", zap.Error(err))
		}
	}

	return nil
}
