package sink

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"salesmart/pkg/etlerr"
)

// WarehouseConfig holds ClickHouse connection configuration.
type WarehouseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Table    string
	Debug    bool
}

// DefaultWarehouseConfig returns default development configuration.
func DefaultWarehouseConfig() *WarehouseConfig {
	return &WarehouseConfig{
		Host:     "localhost",
		Port:     9000,
		Database: "salesmart",
		Username: "default",
		Password: "",
		Table:    "sales_fact",
	}
}

func (c *WarehouseConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Warehouse loads the finalized fact rows into ClickHouse for
// downstream analytics.
type Warehouse struct {
	conn clickhouse.Conn
	cfg  *WarehouseConfig
}

// NewWarehouse opens a ClickHouse connection.
func NewWarehouse(cfg *WarehouseConfig) (*Warehouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	return &Warehouse{conn: conn, cfg: cfg}, nil
}

// Ping checks database connectivity.
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.conn.Ping(ctx)
}

// Close closes the database connection.
func (w *Warehouse) Close() error {
	return w.conn.Close()
}

// EnsureSchema creates the fact table if it does not exist.
func (w *Warehouse) EnsureSchema(ctx context.Context) error {
	if err := w.conn.Exec(ctx, factTableDDL(w.cfg.Table)); err != nil {
		return etlerr.NewWriteFailed(w.cfg.addr(), err)
	}
	return nil
}

// Load replaces the fact table contents with rows: truncate, then one
// batch insert. ClickHouse has no cross-statement transaction, so a
// failed load leaves an empty table rather than a partial one.
func (w *Warehouse) Load(ctx context.Context, rows []FactRow) error {
	if err := w.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", w.cfg.Table)); err != nil {
		return etlerr.NewWriteFailed(w.cfg.addr(), err)
	}
	batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", w.cfg.Table))
	if err != nil {
		return etlerr.NewWriteFailed(w.cfg.addr(), err)
	}
	for i := range rows {
		if err := batch.AppendStruct(&rows[i]); err != nil {
			return etlerr.NewWriteFailed(w.cfg.addr(), fmt.Errorf("failed to append row %d: %w", i, err))
		}
	}
	if err := batch.Send(); err != nil {
		return etlerr.NewWriteFailed(w.cfg.addr(), err)
	}
	return nil
}

// factTableDDL mirrors FactRow column for column. `return` is a
// ClickHouse keyword and stays backtick-quoted.
func factTableDDL(tableName string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			order_number    Int64,
			order_date      String,
			close_date      String,
			order_ship_date String,
			ord_date        Date,
			fin_year        LowCardinality(String),
			quarter_all     LowCardinality(String),
			quarter_sel     LowCardinality(String),
			order_method    LowCardinality(String),
			retailer_name   String,
			retailer_type   Nullable(String),
			region          Nullable(String),
			region2         Nullable(String),
			country         Nullable(String),
			city            Nullable(String),
			rtl_site_code   Nullable(Int64),
			promotion_code  Int64,
			`+"`return`"+`        Int64,
			quantity        Int64,
			unit_price      Float64,
			unit_cost       Float64,
			revenue         Float64,
			tot_prod_cost   Float64,
			gross_profit    Float64,
			prod_numb       Nullable(Int64),
			prod_line       Nullable(String),
			prod_line_2     Nullable(String),
			prod_type       Nullable(String),
			prod_name       Nullable(String),
			brand           Nullable(String),
			color           Nullable(String),
			size            Nullable(String),
			unit_prod_cost  Nullable(Float64),
			unit_gross_marg Nullable(Float64),
			intro_date      Nullable(String),
			halt_date       Nullable(String)
		) ENGINE = MergeTree
		ORDER BY (ord_date, order_number)
	`, tableName)
}
