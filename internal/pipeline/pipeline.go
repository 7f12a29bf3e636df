// Package pipeline wires the stages into the one-shot batch run:
// load, normalize, join, derive, finalize, persist. Every error aborts
// the run immediately; nothing is retried and nothing partial persists.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"salesmart/internal/derive"
	"salesmart/internal/finalize"
	"salesmart/internal/loader"
	"salesmart/internal/normalize"
	"salesmart/internal/sink"
	"salesmart/pkg/etlerr"
)

// Config is the full configuration surface of a run. There is no
// ambient state: no environment reads, no working-directory defaults.
type Config struct {
	InputDir      string
	Glob          string
	ProductsPath  string
	RetailersPath string
	OutputPath    string
	Workers       int

	// Warehouse, when set, additionally loads the finalized rows into
	// ClickHouse after the Parquet artifact is in place.
	Warehouse *sink.WarehouseConfig
}

// Report summarizes a completed run.
type Report struct {
	RunID           uuid.UUID     `json:"run_id"`
	Transactions    int           `json:"transactions"`
	Products        int           `json:"products"`
	Retailers       int           `json:"retailers"`
	OutputRows      int           `json:"output_rows"`
	OutputColumns   int           `json:"output_columns"`
	OutputPath      string        `json:"output_path"`
	WarehouseLoaded bool          `json:"warehouse_loaded"`
	Duration        time.Duration `json:"duration"`
}

// Pipeline runs the ETL end to end.
type Pipeline struct {
	cfg Config
	log zerolog.Logger
}

// New creates a pipeline. Pass zerolog.Nop() to silence it.
func New(cfg Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Run executes the pipeline and returns its report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.New()
	log := p.log.With().Str("run_id", runID.String()).Logger()

	// Load
	tx, err := loader.LoadDir(ctx, p.cfg.InputDir, p.cfg.Glob, p.cfg.Workers)
	if err != nil {
		return nil, etlerr.WithStage(err, "load")
	}
	products, err := loader.LoadFile(p.cfg.ProductsPath)
	if err != nil {
		return nil, etlerr.WithStage(err, "load")
	}
	retailers, err := loader.LoadFile(p.cfg.RetailersPath)
	if err != nil {
		return nil, etlerr.WithStage(err, "load")
	}
	log.Info().
		Int("transactions", tx.NumRows()).
		Int("products", products.NumRows()).
		Int("retailers", retailers.NumRows()).
		Msg("Sources loaded")
	report := &Report{
		RunID:        runID,
		Transactions: tx.NumRows(),
		Products:     products.NumRows(),
		Retailers:    retailers.NumRows(),
	}

	// Normalize
	if err := normalize.Transactions(tx); err != nil {
		return nil, etlerr.WithStage(err, "normalize")
	}
	normalize.Retailers(retailers)
	log.Info().Msg("Columns normalized")

	// Join
	joined, err := tx.LeftJoin(products, "product_number")
	if err != nil {
		return nil, etlerr.WithStage(err, "join")
	}
	joined, err = joined.LeftJoin(retailers, "retailer_site_key")
	if err != nil {
		return nil, etlerr.WithStage(err, "join")
	}
	if joined.NumRows() != report.Transactions {
		return nil, fmt.Errorf("join changed the row count: %d != %d", joined.NumRows(), report.Transactions)
	}
	log.Info().Int("rows", joined.NumRows()).Msg("Reference tables joined")

	// Derive
	if err := derive.Apply(joined); err != nil {
		return nil, etlerr.WithStage(err, "derive")
	}
	log.Info().Msg("Features derived")

	// Finalize
	final, err := finalize.Apply(joined)
	if err != nil {
		return nil, etlerr.WithStage(err, "finalize")
	}
	report.OutputRows = final.NumRows()
	report.OutputColumns = final.NumCols()
	log.Info().Int("columns", final.NumCols()).Msg("Schema finalized")

	// Persist
	rows, err := sink.FromTable(final)
	if err != nil {
		return nil, etlerr.WithStage(err, "persist")
	}
	if err := sink.WriteParquet(p.cfg.OutputPath, rows); err != nil {
		return nil, etlerr.WithStage(err, "persist")
	}
	report.OutputPath = p.cfg.OutputPath
	log.Info().Str("path", p.cfg.OutputPath).Int("rows", len(rows)).Msg("Artifact written")

	if p.cfg.Warehouse != nil {
		if err := p.loadWarehouse(ctx, rows); err != nil {
			return nil, etlerr.WithStage(err, "persist")
		}
		report.WarehouseLoaded = true
		log.Info().Str("table", p.cfg.Warehouse.Table).Msg("Warehouse loaded")
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (p *Pipeline) loadWarehouse(ctx context.Context, rows []sink.FactRow) error {
	wh, err := sink.NewWarehouse(p.cfg.Warehouse)
	if err != nil {
		return err
	}
	defer wh.Close()
	if err := wh.EnsureSchema(ctx); err != nil {
		return err
	}
	return wh.Load(ctx, rows)
}
