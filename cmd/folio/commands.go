package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/folio/internal/config"
	"github.com/mtlprog/folio/internal/database"
	"github.com/mtlprog/folio/internal/display"
	"github.com/mtlprog/folio/internal/export"
	"github.com/mtlprog/folio/internal/portfolio"
	"github.com/mtlprog/folio/internal/snapshot"
	"github.com/mtlprog/folio/internal/store"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list registered portfolios",
		Action: func(c *cli.Context) error {
			st, err := openStore(c)
			if err != nil {
				return err
			}
			for _, name := range st.Names() {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "create an empty portfolio",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			name, err := nameArg(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			return st.CreateEmpty(name)
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "import a JSON file as a new portfolio (- reads stdin)",
		ArgsUsage: "NAME FILE",
		Action: func(c *cli.Context) error {
			name, err := nameArg(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}

			switch src := c.Args().Get(1); src {
			case "":
				return st.Upload(name, nil)
			case "-":
				return st.Upload(name, c.App.Reader)
			default:
				f, err := os.Open(src)
				if err != nil {
					return fmt.Errorf("opening %s: %w", src, err)
				}
				defer f.Close()
				return st.Upload(name, f)
			}
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "delete a portfolio and its file",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			name, err := nameArg(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			return st.Remove(name)
		},
	}
}

func showCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print assets, currencies and transactions of a portfolio",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "print markdown without terminal styling"},
			&cli.IntFlag{Name: "width", Value: 100, Usage: "word wrap width"},
		},
		Action: func(c *cli.Context) error {
			name, err := nameArg(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}

			v, err := display.Build(name, portfolio.NewService(st, cfg.CacheTTL))
			if err != nil {
				return err
			}
			md, err := display.Markdown(v)
			if err != nil {
				return err
			}
			if c.Bool("raw") {
				_, err = fmt.Fprint(c.App.Writer, md)
				return err
			}

			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(c.Int("width")))
			if err != nil {
				return fmt.Errorf("creating terminal renderer: %w", err)
			}
			out, err := r.Render(md)
			if err != nil {
				return fmt.Errorf("rendering %s: %w", name, err)
			}
			_, err = fmt.Fprint(c.App.Writer, out)
			return err
		},
	}
}

func exportCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write a portfolio to an .xlsx workbook",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default NAME.xlsx)"},
		},
		Action: func(c *cli.Context) error {
			name, err := nameArg(c)
			if err != nil {
				return err
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}

			if err := store.ValidateName(name); err != nil {
				return err
			}
			out := c.String("output")
			if out == "" {
				out = name + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}

			svc := export.NewService(portfolio.NewService(st, cfg.CacheTTL))
			if err := svc.Export(c.Context, name, export.NewXLSXWriter(f)); err != nil {
				f.Close()
				os.Remove(out)
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", out, err)
			}
			fmt.Fprintln(c.App.Writer, out)
			return nil
		},
	}
}

func snapshotCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "archive a portfolio (or all of them) in PostgreSQL for today",
		ArgsUsage: "[NAME]",
		Action: func(c *cli.Context) error {
			if !cfg.SnapshotsEnabled() {
				return cli.Exit("DATABASE_URL is required for snapshots", 1)
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}

			pool, err := database.Connect(c.Context, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := migrate(c.Context, pool); err != nil {
				return err
			}

			svc := snapshot.NewService(portfolio.NewService(st, cfg.CacheTTL), st, snapshot.NewPgRepository(pool))
			today := time.Now().UTC()
			if c.Args().Len() == 0 {
				return svc.CaptureAll(c.Context, today)
			}
			return svc.Capture(c.Context, c.Args().First(), today)
		},
	}
}

func publishCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "export a portfolio (or all of them) to Google Sheets",
		ArgsUsage: "[NAME]",
		Action: func(c *cli.Context) error {
			if !cfg.SheetsEnabled() {
				return cli.Exit("SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required", 1)
			}
			st, err := openStore(c)
			if err != nil {
				return err
			}
			writer, err := export.NewSheetsWriter(c.Context, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
			if err != nil {
				return err
			}

			svc := export.NewService(portfolio.NewService(st, cfg.CacheTTL))
			if c.Args().Len() == 0 {
				return export.NewPublisher(svc, st, writer).Publish(c.Context)
			}
			return svc.Export(c.Context, c.Args().First(), writer)
		},
	}
}
