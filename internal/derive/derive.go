// Package derive computes the financial metrics and categorical/date
// buckets of the joined transaction table. Every derived column is a
// pure per-row function of existing columns.
package derive

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"salesmart/internal/table"
)

const (
	dateLayout     = "2006-01-02"
	fallbackBucket = "other"
)

// Columns the deriver reads. Checked up front so a schema drift fails
// before any row is touched.
var requiredColumns = []string{
	"quantity", "unit_price", "unit_cost", "return_count",
	"product_line", "country_en", "region_en", "order_date",
}

// Apply mutates t in place, adding revenue, tot_prod_cost, gross_profit,
// prod_line, prod_line_2, region2, ord_date, fin_year, quarter_all and
// quarter_sel, and filling null return counts with zero.
func Apply(t *table.Table) error {
	for _, col := range requiredColumns {
		if _, err := t.ColumnKind(col); err != nil {
			return err
		}
	}

	added := []struct {
		name string
		kind table.Kind
	}{
		{"revenue", table.Decimal},
		{"tot_prod_cost", table.Decimal},
		{"gross_profit", table.Decimal},
		{"prod_line", table.String},
		{"prod_line_2", table.String},
		{"region2", table.String},
		{"ord_date", table.String},
		{"fin_year", table.String},
		{"quarter_all", table.String},
		{"quarter_sel", table.String},
	}
	for _, c := range added {
		if err := t.AddColumn(c.name, c.kind); err != nil {
			return err
		}
	}

	for r := 0; r < t.NumRows(); r++ {
		if err := deriveRow(t, r); err != nil {
			return err
		}
	}
	return nil
}

func deriveRow(t *table.Table, r int) error {
	if err := deriveFinancials(t, r); err != nil {
		return err
	}
	if err := fillReturnCount(t, r); err != nil {
		return err
	}
	if err := deriveProductLine(t, r); err != nil {
		return err
	}
	if err := deriveRegion(t, r); err != nil {
		return err
	}
	return deriveDateBuckets(t, r)
}

// revenue = quantity * unit_price, tot_prod_cost = quantity * unit_cost,
// gross_profit = revenue - tot_prod_cost. Decimal arithmetic throughout;
// a row missing any input keeps null financials.
func deriveFinancials(t *table.Table, r int) error {
	qty, okQ := cellDecimal(t, r, "quantity")
	price, okP := cellDecimal(t, r, "unit_price")
	cost, okC := cellDecimal(t, r, "unit_cost")
	if !okQ {
		return nil
	}
	var revenue, totCost decimal.Decimal
	if okP {
		revenue = qty.Mul(price)
		if err := t.Set(r, "revenue", revenue); err != nil {
			return err
		}
	}
	if okC {
		totCost = qty.Mul(cost)
		if err := t.Set(r, "tot_prod_cost", totCost); err != nil {
			return err
		}
	}
	if okP && okC {
		return t.Set(r, "gross_profit", revenue.Sub(totCost))
	}
	return nil
}

func fillReturnCount(t *table.Table, r int) error {
	v, err := t.Value(r, "return_count")
	if err != nil {
		return err
	}
	if v == nil {
		return t.Set(r, "return_count", int64(0))
	}
	return nil
}

func deriveProductLine(t *table.Table, r int) error {
	v, err := t.Value(r, "product_line")
	if err != nil {
		return err
	}
	line, ok := v.(string)
	if !ok {
		return nil // unmatched product join, both buckets stay null
	}
	short := line
	if label, hit := matchValue(prodLineRules, line); hit {
		short = label
	}
	if err := t.Set(r, "prod_line", short); err != nil {
		return err
	}
	alt := line
	if label, hit := matchValue(prodLine2Rules, line); hit {
		alt = label
	}
	return t.Set(r, "prod_line_2", alt)
}

// region2 regroups the twelve listed countries into West/East Europe;
// every other country keeps the row's existing region value.
func deriveRegion(t *table.Table, r int) error {
	v, err := t.Value(r, "country_en")
	if err != nil {
		return err
	}
	if country, ok := v.(string); ok {
		if label, hit := matchValue(regionRules, country); hit {
			return t.Set(r, "region2", label)
		}
	}
	region, err := t.Value(r, "region_en")
	if err != nil {
		return err
	}
	return t.Set(r, "region2", region)
}

func deriveDateBuckets(t *table.Table, r int) error {
	v, err := t.Value(r, "order_date")
	if err != nil {
		return err
	}
	raw, ok := v.(string)
	if !ok {
		return fmt.Errorf("row %d has no order_date", r)
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("row %d has unparseable order_date %q: %w", r, raw, err)
	}
	if err := t.Set(r, "ord_date", d.Format(dateLayout)); err != nil {
		return err
	}
	for _, b := range []struct {
		col     string
		windows []dateWindow
	}{
		{"fin_year", finYearWindows},
		{"quarter_all", quarterAllWindows},
		{"quarter_sel", quarterSelWindows},
	} {
		label, hit := matchWindow(b.windows, d)
		if !hit {
			label = fallbackBucket
		}
		if err := t.Set(r, b.col, label); err != nil {
			return err
		}
	}
	return nil
}

func cellDecimal(t *table.Table, r int, col string) (decimal.Decimal, bool) {
	v, err := t.Value(r, col)
	if err != nil || v == nil {
		return decimal.Decimal{}, false
	}
	return table.DecimalValue(v)
}
