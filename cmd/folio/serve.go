package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/folio/internal/api"
	"github.com/mtlprog/folio/internal/config"
	"github.com/mtlprog/folio/internal/database"
	"github.com/mtlprog/folio/internal/export"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/snapshot"
	"github.com/mtlprog/folio/internal/worker"
)

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the web UI, the JSON API and the background workers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Value: cfg.HTTPPort, Usage: "HTTP port"},
		},
		Action: func(c *cli.Context) error {
			return serve(c.Context, c, cfg)
		},
	}
}

func serve(ctx context.Context, c *cli.Context, cfg config.Config) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	st, err := openStore(c)
	if err != nil {
		return err
	}
	slog.Info("portfolios loaded", "dir", st.Dir(), "count", len(st.Names()))

	portfolios := portfolio.NewService(st, cfg.CacheTTL)
	opts := api.Options{
		AdminAPIKey:       cfg.AdminAPIKey,
		SnapshotListLimit: cfg.SnapshotListLimit,
	}

	// Google Sheets export (optional)
	var publisher *export.Publisher
	if cfg.SheetsEnabled() {
		writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return fmt.Errorf("creating sheets writer: %w", err)
		}
		opts.Sheets = writer
		publisher = export.NewPublisher(export.NewService(portfolios), st, writer)
	} else {
		slog.Info("Google Sheets export disabled")
	}

	// Snapshot archive (optional)
	if cfg.SnapshotsEnabled() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrate(ctx, pool); err != nil {
			return err
		}

		snapshotSvc := snapshot.NewService(portfolios, st, snapshot.NewPgRepository(pool))
		opts.Snapshots = snapshotSvc

		var hook worker.AfterSnapshotHook
		if publisher != nil {
			hook = publisher
		}
		go worker.NewSnapshotWorker(snapshotSvc, cfg.SnapshotInterval, hook).Run(ctx)
	} else {
		slog.Info("DATABASE_URL not set, snapshot archive disabled")
	}

	go worker.NewRescanWorker(st, cfg.RescanInterval).Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, mutating API endpoints are unprotected")
	}

	port := c.String("port")
	srv := api.NewServer(port, st, portfolios, opts)

	go func() {
		slog.Info("HTTP server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// migrate applies the embedded migrations.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, sub); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
