package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kwadjo/predsync/internal/config"
	"github.com/kwadjo/predsync/internal/engine"
	"github.com/kwadjo/predsync/internal/errors"
	"github.com/kwadjo/predsync/internal/ops"
	"github.com/kwadjo/predsync/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.App {
	app := &cli.App{
		Name:    "predsync",
		Usage:   "Incremental prediction feed synchronizer",
		Version: Version,
		Commands: []*cli.Command{
			syncCmd(eng),
			recordsCmd(db),
			statsCmd(db),
			reportCmd(db),
			runsCmd(db),
			resetCmd(db),
			serveCmd(db, cfg, eng),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// syncCmd creates the sync command.
func syncCmd(eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Walk the feed and ingest new predictions",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "full", Usage: "Rescan the feed from the beginning"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Suppress progress output"},
		},
		Action: func(c *cli.Context) error {
			mode := engine.ModeIncremental
			if c.Bool("full") {
				mode = engine.ModeFull
			}

			var sink engine.ProgressFunc
			if !c.Bool("quiet") {
				sink = func(p engine.Progress) {
					fmt.Fprintf(os.Stderr, "… %d new records (feed position %d)\n",
						p.NewRecords, p.LastMessageID)
				}
			}

			output, err := eng.Sync(c.Context, mode, sink)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// recordsCmd creates the records command.
func recordsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "records",
		Usage: "List stored predictions",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "couleur", Aliases: []string{"c"}, Usage: "Filter by couleur (case-insensitive substring)"},
			&cli.StringFlag{Name: "statut", Aliases: []string{"s"}, Usage: "Filter by statut (case-insensitive substring)"},
			&cli.StringFlag{Name: "numero", Aliases: []string{"n"}, Usage: "Filter by exact numero"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum records to return (0 = all)"},
			&cli.IntFlag{Name: "offset", Usage: "Records to skip from the start"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Query(db, ops.QueryInput{
				Couleur: c.String("couleur"),
				Statut:  c.String("statut"),
				Numero:  c.String("numero"),
				Limit:   c.Int("limit"),
				Offset:  c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show outcome breakdown and sync position",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Generate a prediction report",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "couleur", Aliases: []string{"c"}, Usage: "Filter by couleur"},
			&cli.StringFlag{Name: "statut", Aliases: []string{"s"}, Usage: "Filter by statut"},
			&cli.StringFlag{Name: "numero", Aliases: []string{"n"}, Usage: "Filter by exact numero"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Report title"},
			&cli.BoolFlag{Name: "html", Usage: "Emit rendered HTML instead of markdown"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(db, ops.ReportInput{
				Couleur: c.String("couleur"),
				Statut:  c.String("statut"),
				Numero:  c.String("numero"),
				Title:   c.String("title"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("html") {
				fmt.Println(output.HTML)
			} else {
				fmt.Println(output.Markdown)
			}
			return nil
		},
	}
}

// runsCmd creates the runs command.
func runsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show sync run history, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum runs to return"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Runs(db, ops.RunsInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Delete all records and reset the sync cursor",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "confirm", Usage: "Required to actually reset"},
		},
		Action: func(c *cli.Context) error {
			if !c.Bool("confirm") {
				return outputError(errors.NewInvalidRequest("reset requires --confirm"))
			}

			output, err := ops.Reset(db)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, eng *engine.Engine) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8686, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			log := newLogger()
			defer func() { _ = log.Sync() }()

			srv := web.NewServer(db, cfg, eng, log, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv, log); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if syncErr, ok := err.(*errors.SyncError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", syncErr.Code, syncErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
