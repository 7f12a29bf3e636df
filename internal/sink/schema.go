// Package sink persists the finalized table: a Parquet artifact on the
// local filesystem, and optionally a ClickHouse warehouse load for
// downstream analytics.
package sink

import (
	"fmt"

	"salesmart/internal/table"
)

// FactRow is the persisted output record. Field order matches the
// finalized column order; pointer fields are nullable. prod_numb is the
// transaction's own join key and stays set on an unmatched product row
// (null only when the source cell was empty); the other pointer fields
// null out on unmatched join sides. Decimals persist as float64.
type FactRow struct {
	OrderNumber   int64    `parquet:"order_number" ch:"order_number"`
	OrderDate     string   `parquet:"order_date" ch:"order_date"`
	CloseDate     string   `parquet:"close_date" ch:"close_date"`
	OrderShipDate string   `parquet:"order_ship_date" ch:"order_ship_date"`
	OrdDate       string   `parquet:"ord_date" ch:"ord_date"`
	FinYear       string   `parquet:"fin_year" ch:"fin_year"`
	QuarterAll    string   `parquet:"quarter_all" ch:"quarter_all"`
	QuarterSel    string   `parquet:"quarter_sel" ch:"quarter_sel"`
	OrderMethod   string   `parquet:"order_method" ch:"order_method"`
	RetailerName  string   `parquet:"retailer_name" ch:"retailer_name"`
	RetailerType  *string  `parquet:"retailer_type,optional" ch:"retailer_type"`
	Region        *string  `parquet:"region,optional" ch:"region"`
	Region2       *string  `parquet:"region2,optional" ch:"region2"`
	Country       *string  `parquet:"country,optional" ch:"country"`
	City          *string  `parquet:"city,optional" ch:"city"`
	RtlSiteCode   *int64   `parquet:"rtl_site_code,optional" ch:"rtl_site_code"`
	PromotionCode int64    `parquet:"promotion_code" ch:"promotion_code"`
	Return        int64    `parquet:"return" ch:"return"`
	Quantity      int64    `parquet:"quantity" ch:"quantity"`
	UnitPrice     float64  `parquet:"unit_price" ch:"unit_price"`
	UnitCost      float64  `parquet:"unit_cost" ch:"unit_cost"`
	Revenue       float64  `parquet:"revenue" ch:"revenue"`
	TotProdCost   float64  `parquet:"tot_prod_cost" ch:"tot_prod_cost"`
	GrossProfit   float64  `parquet:"gross_profit" ch:"gross_profit"`
	ProdNumb      *int64   `parquet:"prod_numb,optional" ch:"prod_numb"`
	ProdLine      *string  `parquet:"prod_line,optional" ch:"prod_line"`
	ProdLine2     *string  `parquet:"prod_line_2,optional" ch:"prod_line_2"`
	ProdType      *string  `parquet:"prod_type,optional" ch:"prod_type"`
	ProdName      *string  `parquet:"prod_name,optional" ch:"prod_name"`
	Brand         *string  `parquet:"brand,optional" ch:"brand"`
	Color         *string  `parquet:"color,optional" ch:"color"`
	Size          *string  `parquet:"size,optional" ch:"size"`
	UnitProdCost  *float64 `parquet:"unit_prod_cost,optional" ch:"unit_prod_cost"`
	UnitGrossMarg *float64 `parquet:"unit_gross_marg,optional" ch:"unit_gross_marg"`
	IntroDate     *string  `parquet:"intro_date,optional" ch:"intro_date"`
	HaltDate      *string  `parquet:"halt_date,optional" ch:"halt_date"`
}

// FromTable converts the finalized table into persistable rows. The
// table must already carry the finalized schema; a null in a
// non-nullable column or a kind surprise fails loud.
func FromTable(t *table.Table) ([]FactRow, error) {
	rows := make([]FactRow, 0, t.NumRows())
	for r := 0; r < t.NumRows(); r++ {
		row, err := rowAt(t, r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func rowAt(t *table.Table, r int) (*FactRow, error) {
	var row FactRow
	var err error

	get := func(col string) any {
		if err != nil {
			return nil
		}
		var v any
		v, err = t.Value(r, col)
		return v
	}

	if row.OrderNumber, err = asInt(get("order_number"), "order_number", err); err != nil {
		return nil, err
	}
	if row.OrderDate, err = asString(get("order_date"), "order_date", err); err != nil {
		return nil, err
	}
	if row.CloseDate, err = asString(get("close_date"), "close_date", err); err != nil {
		return nil, err
	}
	if row.OrderShipDate, err = asString(get("order_ship_date"), "order_ship_date", err); err != nil {
		return nil, err
	}
	if row.OrdDate, err = asString(get("ord_date"), "ord_date", err); err != nil {
		return nil, err
	}
	if row.FinYear, err = asString(get("fin_year"), "fin_year", err); err != nil {
		return nil, err
	}
	if row.QuarterAll, err = asString(get("quarter_all"), "quarter_all", err); err != nil {
		return nil, err
	}
	if row.QuarterSel, err = asString(get("quarter_sel"), "quarter_sel", err); err != nil {
		return nil, err
	}
	if row.OrderMethod, err = asString(get("order_method"), "order_method", err); err != nil {
		return nil, err
	}
	if row.RetailerName, err = asString(get("retailer_name"), "retailer_name", err); err != nil {
		return nil, err
	}
	if row.RetailerType, err = asStringPtr(get("retailer_type"), "retailer_type", err); err != nil {
		return nil, err
	}
	if row.Region, err = asStringPtr(get("region"), "region", err); err != nil {
		return nil, err
	}
	if row.Region2, err = asStringPtr(get("region2"), "region2", err); err != nil {
		return nil, err
	}
	if row.Country, err = asStringPtr(get("country"), "country", err); err != nil {
		return nil, err
	}
	if row.City, err = asStringPtr(get("city"), "city", err); err != nil {
		return nil, err
	}
	if row.RtlSiteCode, err = asIntPtr(get("rtl_site_code"), "rtl_site_code", err); err != nil {
		return nil, err
	}
	if row.PromotionCode, err = asInt(get("promotion_code"), "promotion_code", err); err != nil {
		return nil, err
	}
	if row.Return, err = asInt(get("return"), "return", err); err != nil {
		return nil, err
	}
	if row.Quantity, err = asInt(get("quantity"), "quantity", err); err != nil {
		return nil, err
	}
	if row.UnitPrice, err = asFloat(get("unit_price"), "unit_price", err); err != nil {
		return nil, err
	}
	if row.UnitCost, err = asFloat(get("unit_cost"), "unit_cost", err); err != nil {
		return nil, err
	}
	if row.Revenue, err = asFloat(get("revenue"), "revenue", err); err != nil {
		return nil, err
	}
	if row.TotProdCost, err = asFloat(get("tot_prod_cost"), "tot_prod_cost", err); err != nil {
		return nil, err
	}
	if row.GrossProfit, err = asFloat(get("gross_profit"), "gross_profit", err); err != nil {
		return nil, err
	}
	if row.ProdNumb, err = asIntPtr(get("prod_numb"), "prod_numb", err); err != nil {
		return nil, err
	}
	if row.ProdLine, err = asStringPtr(get("prod_line"), "prod_line", err); err != nil {
		return nil, err
	}
	if row.ProdLine2, err = asStringPtr(get("prod_line_2"), "prod_line_2", err); err != nil {
		return nil, err
	}
	if row.ProdType, err = asStringPtr(get("prod_type"), "prod_type", err); err != nil {
		return nil, err
	}
	if row.ProdName, err = asStringPtr(get("prod_name"), "prod_name", err); err != nil {
		return nil, err
	}
	if row.Brand, err = asStringPtr(get("brand"), "brand", err); err != nil {
		return nil, err
	}
	if row.Color, err = asStringPtr(get("color"), "color", err); err != nil {
		return nil, err
	}
	if row.Size, err = asStringPtr(get("size"), "size", err); err != nil {
		return nil, err
	}
	if row.UnitProdCost, err = asFloatPtr(get("unit_prod_cost"), "unit_prod_cost", err); err != nil {
		return nil, err
	}
	if row.UnitGrossMarg, err = asFloatPtr(get("unit_gross_marg"), "unit_gross_marg", err); err != nil {
		return nil, err
	}
	if row.IntroDate, err = asStringPtr(get("intro_date"), "intro_date", err); err != nil {
		return nil, err
	}
	if row.HaltDate, err = asStringPtr(get("halt_date"), "halt_date", err); err != nil {
		return nil, err
	}
	return &row, nil
}

func asInt(v any, col string, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	x, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("column %s: expected int, got %T", col, v)
	}
	return x, nil
}

func asIntPtr(v any, col string, err error) (*int64, error) {
	if err != nil || v == nil {
		return nil, err
	}
	x, err := asInt(v, col, nil)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func asString(v any, col string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	x, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("column %s: expected string, got %T", col, v)
	}
	return x, nil
}

func asStringPtr(v any, col string, err error) (*string, error) {
	if err != nil || v == nil {
		return nil, err
	}
	x, err := asString(v, col, nil)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func asFloat(v any, col string, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	d, ok := table.DecimalValue(v)
	if !ok {
		return 0, fmt.Errorf("column %s: expected numeric, got %T", col, v)
	}
	return d.InexactFloat64(), nil
}

func asFloatPtr(v any, col string, err error) (*float64, error) {
	if err != nil || v == nil {
		return nil, err
	}
	x, err := asFloat(v, col, nil)
	if err != nil {
		return nil, err
	}
	return &x, nil
}
