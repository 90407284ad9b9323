package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sllt/sqlkit/pkg/sqlkit/dbext"
	"github.com/sllt/sqlkit/pkg/sqlkit/metrics"
)

// CLIVersion is overridden at build time with -ldflags "-X main.CLIVersion=...".
var CLIVersion = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "sqlkit",
		Usage:   "Run statements through the sqlkit database helper",
		Version: CLIVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "Folder holding .env files and config.yaml",
				Value: "./configs",
			},
			&cli.IntFlag{
				Name:  "metrics-port",
				Usage: "Serve /metrics on this port while the command runs (0 disables it)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "query",
				Usage: "Run a query and print its rows as JSON lines",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sql", Usage: "Statement with ? placeholders", Required: true},
					&cli.StringSliceFlag{Name: "param", Usage: "Bind value, repeat in placeholder order"},
					&cli.DurationFlag{Name: "cache-ttl", Usage: "Cache the result in Redis for this long"},
				},
				Action: withApp(runQuery),
			},
			{
				Name:  "exec",
				Usage: "Run a statement and print the affected row count",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "sql", Usage: "Statement with ? placeholders", Required: true},
					&cli.StringSliceFlag{Name: "param", Usage: "Bind value, repeat in placeholder order"},
					&cli.BoolFlag{Name: "ignore-errors", Usage: "Log failures instead of returning them"},
				},
				Action: withApp(runExec),
			},
			{
				Name:  "purge",
				Usage: "Select ids and delete the matching rows in batches",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "table", Required: true},
					&cli.StringFlag{Name: "id-column", Value: "id"},
					&cli.StringFlag{Name: "where", Usage: "Filter appended verbatim to the select"},
					&cli.BoolFlag{Name: "tx", Usage: "Run the select and every batch in one transaction"},
				},
				Action: withApp(runPurge),
			},
			{
				Name:  "upsert",
				Usage: "Insert a row or overwrite it when it exists",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "table", Required: true},
					&cli.StringSliceFlag{Name: "set", Usage: "column=value, repeat per column", Required: true},
				},
				Action: withApp(runUpsert),
			},
		},
	}
}

type action func(ctx context.Context, cmd *cli.Command, a *app) error

// withApp builds the shared dependencies, serves metrics when asked and runs fn next to the
// metrics server until fn returns.
func withApp(fn action) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(ctx, cmd.String("config-dir"))
		if err != nil {
			return err
		}

		defer a.close()

		port := int(cmd.Int("metrics-port"))
		if port == 0 {
			return fn(ctx, cmd, a)
		}

		srv := metrics.NewServer(port, a.metrics)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			return srv.Run(a.logger)
		})

		g.Go(func() error {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
				defer cancel()

				_ = srv.Shutdown(shutdownCtx)
			}()

			return fn(gctx, cmd, a)
		})

		return g.Wait()
	}
}

func runQuery(ctx context.Context, cmd *cli.Command, a *app) error {
	ttl := cmd.Duration("cache-ttl")

	h, err := a.helper(a.db, ttl > 0)
	if err != nil {
		return err
	}

	params := toParams(cmd.StringSlice("param"))

	var rs *dbext.ResultSet

	if ttl > 0 {
		rs, err = h.ExecuteCacheQuery(ctx, cmd.String("sql"), params, nil, dbext.CacheProfile{TTL: ttl})
	} else {
		rs, err = h.ExecuteQuery(ctx, cmd.String("sql"), params)
	}

	if err != nil {
		return err
	}

	return writeRows(cmd.Root().Writer, rs)
}

func runExec(ctx context.Context, cmd *cli.Command, a *app) error {
	h, err := a.helper(a.db, false)
	if err != nil {
		return err
	}

	if cmd.Bool("ignore-errors") {
		_, err = h.QueryIgnoreError(ctx, cmd.String("sql"))

		return err
	}

	n, err := h.ExecuteUpdate(ctx, cmd.String("sql"), toParams(cmd.StringSlice("param")))
	if err != nil {
		return err
	}

	return writeAffected(cmd.Root().Writer, n)
}

func runPurge(ctx context.Context, cmd *cli.Command, a *app) error {
	if !cmd.Bool("tx") {
		h, err := a.helper(a.db, false)
		if err != nil {
			return err
		}

		return h.SelectAndDeleteWhere(ctx, cmd.String("table"), cmd.String("id-column"), cmd.String("where"))
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	h, err := a.helper(tx, false)
	if err != nil {
		_ = tx.Rollback()

		return err
	}

	if err := h.SelectAndDeleteWhere(ctx, cmd.String("table"), cmd.String("id-column"), cmd.String("where")); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			a.logger.Errorf("rollback failed: %v", rbErr)
		}

		return err
	}

	return tx.Commit()
}

func runUpsert(ctx context.Context, cmd *cli.Command, a *app) error {
	data, err := parseAssignments(cmd.StringSlice("set"))
	if err != nil {
		return err
	}

	h, err := a.helper(a.db, false)
	if err != nil {
		return err
	}

	n, err := h.InsertOrUpdate(ctx, cmd.String("table"), data)
	if err != nil {
		return err
	}

	return writeAffected(cmd.Root().Writer, n)
}
