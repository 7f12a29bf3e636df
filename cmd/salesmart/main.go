// salesmart - sales transaction ETL
//
// Usage:
//   salesmart build --input-dir data/transactions --products data/products.csv \
//     --retailers data/retailers.csv --output out/sales.parquet
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"salesmart/internal/pipeline"
	"salesmart/internal/sink"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Exit codes for CI integration.
const (
	ExitSuccess     = 0
	ExitUsageError  = 10
	ExitPipelineErr = 11
)

func main() {
	app := &cli.App{
		Name:    "salesmart",
		Usage:   "Build the denormalized sales analytics mart from raw transaction files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"SALESMART_LOG_LEVEL"},
			},
		},

		Commands: []*cli.Command{
			buildCommand(),
		},
	}

	// Pipeline failures carry ExitPipelineErr via cli.Exit; anything
	// surfacing here is a flag or usage problem.
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitUsageError)
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Run the full pipeline: load, normalize, join, derive, finalize, persist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input-dir",
				Aliases:  []string{"i"},
				Usage:    "Directory holding the per-period transaction files",
				Required: true,
				EnvVars:  []string{"SALESMART_INPUT_DIR"},
			},
			&cli.StringFlag{
				Name:    "glob",
				Value:   "*.csv",
				Usage:   "File-name pattern for transaction files inside input-dir",
				EnvVars: []string{"SALESMART_GLOB"},
			},
			&cli.StringFlag{
				Name:     "products",
				Usage:    "Path to the product reference file",
				Required: true,
				EnvVars:  []string{"SALESMART_PRODUCTS"},
			},
			&cli.StringFlag{
				Name:     "retailers",
				Usage:    "Path to the retailer reference file",
				Required: true,
				EnvVars:  []string{"SALESMART_RETAILERS"},
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Path of the Parquet artifact to write",
				Required: true,
				EnvVars:  []string{"SALESMART_OUTPUT"},
			},
			&cli.IntFlag{
				Name:    "workers",
				Value:   0,
				Usage:   "Concurrent file reads (0 = default)",
				EnvVars: []string{"SALESMART_WORKERS"},
			},
			&cli.BoolFlag{
				Name:    "report-json",
				Usage:   "Print the run report as JSON on stdout",
				EnvVars: []string{"SALESMART_REPORT_JSON"},
			},
			&cli.BoolFlag{
				Name:    "clickhouse",
				Usage:   "Also load the finalized rows into ClickHouse",
				EnvVars: []string{"SALESMART_CLICKHOUSE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "salesmart",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-table",
				Value:   "sales_fact",
				Usage:   "ClickHouse fact table name",
				EnvVars: []string{"CLICKHOUSE_TABLE"},
			},
		},
		Action: runBuild,
	}
}

func runBuild(c *cli.Context) error {
	logger := newLogger(c.String("log-level"))

	cfg := pipeline.Config{
		InputDir:      c.String("input-dir"),
		Glob:          c.String("glob"),
		ProductsPath:  c.String("products"),
		RetailersPath: c.String("retailers"),
		OutputPath:    c.String("output"),
		Workers:       c.Int("workers"),
	}
	if c.Bool("clickhouse") {
		cfg.Warehouse = &sink.WarehouseConfig{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
			Table:    c.String("clickhouse-table"),
		}
	}

	report, err := pipeline.New(cfg, logger).Run(c.Context)
	if err != nil {
		logger.Error().Err(err).Msg("Pipeline failed")
		return cli.Exit(err.Error(), ExitPipelineErr)
	}

	logger.Info().
		Int("rows", report.OutputRows).
		Int("columns", report.OutputColumns).
		Dur("duration", report.Duration).
		Msg("Pipeline complete")

	if c.Bool("report-json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	log.Logger = logger
	return logger
}
