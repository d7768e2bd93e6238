package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/csvviz/internal/config"
	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/dataset"
	"github.com/JonMunkholm/csvviz/internal/logging"
	"github.com/JonMunkholm/csvviz/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"audit_backend", auditBackend(cfg),
	)

	audit, err := newAuditRecorder(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open audit store", "error", err)
		os.Exit(1)
	}

	service := core.NewService(dataset.NewStore(), audit, core.OptionsFromConfig(cfg))
	defer service.Close()

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.Status().Uploads.Active; active > 0 {
			slog.Info("waiting for uploads to complete", "active", active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		service.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func auditBackend(cfg *config.Config) string {
	if cfg.Audit.DatabaseURL == "" {
		return "memory"
	}
	return "postgres"
}

// newAuditRecorder picks PostgreSQL when AUDIT_DATABASE_URL is set and the
// in-memory ring otherwise.
func newAuditRecorder(ctx context.Context, cfg *config.Config) (core.AuditRecorder, error) {
	if cfg.Audit.DatabaseURL == "" {
		return core.NewMemoryAuditRecorder(cfg.Audit.MemoryCapacity), nil
	}
	rec, err := core.NewPostgresAuditRecorder(ctx, cfg.Audit.DatabaseURL, core.PoolConfig{
		MaxConns:        cfg.Audit.MaxConns,
		MinConns:        cfg.Audit.MinConns,
		MaxConnLifetime: cfg.Audit.MaxConnLifetime,
		MaxConnIdleTime: cfg.Audit.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("connected to audit database")
	return rec, nil
}
