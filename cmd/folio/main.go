package main

import (
	"context"
	"embed"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/folio/internal/config"
	"github.com/mtlprog/folio/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := newApp(cfg).RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg config.Config) *cli.App {
	return &cli.App{
		Name:  "folio",
		Usage: "keep personal investment portfolios as JSON files and view them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "directory holding the portfolio files",
				Value:   cfg.PortfolioDir,
				EnvVars: []string{"PORTFOLIO_DIR"},
			},
		},
		Commands: []*cli.Command{
			listCommand(),
			createCommand(),
			uploadCommand(),
			removeCommand(),
			showCommand(cfg),
			exportCommand(cfg),
			snapshotCommand(cfg),
			publishCommand(cfg),
			serveCommand(cfg),
		},
	}
}

// openStore prepares the store for the --dir directory and loads its registry.
func openStore(c *cli.Context) (*store.Store, error) {
	st, err := store.New(c.String("dir"))
	if err != nil {
		return nil, err
	}
	if err := st.EnsureDir(); err != nil {
		return nil, err
	}
	if err := st.Reload(); err != nil {
		return nil, err
	}
	return st, nil
}

// nameArg returns the first positional argument or a usage error.
func nameArg(c *cli.Context) (string, error) {
	if c.Args().Len() < 1 {
		return "", cli.Exit(fmt.Sprintf("usage: %s %s", c.App.Name, c.Command.ArgsUsage), 2)
	}
	return c.Args().First(), nil
}
