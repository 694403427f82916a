// Command toybank replays a CSV transaction stream through the ledger
// engine and prints the final per-client account snapshot to stdout.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	luxlog "github.com/luxfi/log"

	"github.com/toybank/ledger/internal/ledger"
	"github.com/toybank/ledger/internal/ledger/csvio"
	"github.com/toybank/ledger/internal/ledger/engine"
	"github.com/toybank/ledger/internal/ledger/metrics"
)

func main() {
	app := &cli.App{
		Name:      "toybank",
		Usage:     "replay a transaction stream and print the resulting account balances",
		ArgsUsage: "<input.csv>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "concurrency",
				Aliases: []string{"p"},
				Usage:   "number of processing lanes; 0 = GOMAXPROCS, omitted = 1 (single-threaded)",
			},
			&cli.BoolFlag{
				Name:    "allow-negative-dispute",
				Aliases: []string{"n"},
				Usage:   "allow a dispute to drive available balance negative instead of rejecting it",
			},
			&cli.StringFlag{
				Name:  "ledger",
				Usage: `ledger store backend: "" for in-memory, "inmem" for an ephemeral embedded store, or a path to persist to disk`,
			},
			&cli.BoolFlag{
				Name:  "drop",
				Usage: "clear the ledger store's contents before replaying (only meaningful with --ledger)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "trace, debug, info, warn, error, or crit",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file (rotated via lumberjack) instead of stderr",
			},
		},
		Before: setupLogging,
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging points the process-wide slog handler luxfi/log's loggers
// delegate to at stderr (through go-colorable when it's a terminal) or, if
// --log-file is set, at a lumberjack-rotated file, at the requested level.
// The handler is slog's plain text handler; it writes no color codes.
func setupLogging(c *cli.Context) error {
	level, err := luxlog.ToLevel(c.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	var w io.Writer
	if path := c.String("log-file"); path != "" {
		w = &lumberjack.Logger{Filename: path, MaxSize: 50, MaxBackups: 3, MaxAge: 28}
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		w = colorable.NewColorableStderr()
	} else {
		w = os.Stderr
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(level)})))
	luxlog.SetDefault(luxlog.New())
	return nil
}

func run(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("expected exactly one input file argument", 1)
	}
	path := c.Args().First()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input %q: %w", path, err)
	}
	defer f.Close()

	concurrency := 1
	if c.IsSet("concurrency") {
		concurrency = c.Int("concurrency")
	}

	cfg := engine.Config{
		Concurrency: concurrency,
		Policy:      ledger.Policy{AllowNegativeBalanceForDispute: c.Bool("allow-negative-dispute")},
		LedgerName:  c.String("ledger"),
		Drop:        c.Bool("drop"),
	}

	rec := metrics.NewRecorder(prometheus.NewRegistry())

	eng, err := engine.Open(cfg, rec)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer eng.Close()

	decodeErr := csvio.DecodeEvents(f, func(evt ledger.Event) error {
		return eng.Dispatch(evt)
	})

	finishErr := eng.Finish()

	if decodeErr != nil {
		return fmt.Errorf("decode input: %w", decodeErr)
	}
	if finishErr != nil {
		return fmt.Errorf("processing failed: %w", finishErr)
	}

	return csvio.EncodeAccounts(os.Stdout, eng.Accounts)
}
