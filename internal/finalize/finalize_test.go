package finalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmart/internal/table"
	"salesmart/pkg/etlerr"
)

// preFinalizeColumns is the joined+derived schema the finalizer expects,
// plus rtl_name which the selection intentionally drops.
var preFinalizeColumns = []string{
	"order_number", "order_date", "close_date", "ship_date", "ord_date",
	"fin_year", "quarter_all", "quarter_sel", "order_method",
	"retailer_name", "rtl_name", "retailer_type_en", "region_en", "region2",
	"country_en", "rtl_city", "rtl_site_code", "promotion_code",
	"return_count", "quantity", "unit_price", "unit_cost",
	"revenue", "tot_prod_cost", "gross_profit",
	"product_number", "prod_line", "prod_line_2", "product_type",
	"product_name", "brand", "color", "product_size",
	"production_cost", "gross_margin", "introduction_date", "discontinued_date",
}

func joinedTable(t *testing.T) *table.Table {
	t.Helper()
	cols := make([]table.Column, len(preFinalizeColumns))
	cells := make([]any, len(preFinalizeColumns))
	for i, name := range preFinalizeColumns {
		cols[i] = table.Column{Name: name, Kind: table.String}
		cells[i] = name + "-value"
	}
	tbl := table.New(cols)
	require.NoError(t, tbl.AppendRow(cells))
	return tbl
}

func TestApply(t *testing.T) {
	out, err := Apply(joinedTable(t))
	require.NoError(t, err)

	t.Run("exact column order", func(t *testing.T) {
		got := out.Columns()
		require.Equal(t, len(OutputColumns), len(got))
		for i, c := range got {
			assert.Equal(t, OutputColumns[i], c.Name)
		}
	})

	t.Run("renamed columns carry their source values", func(t *testing.T) {
		for renamed, source := range map[string]string{
			"order_ship_date": "ship_date",
			"retailer_type":   "retailer_type_en",
			"region":          "region_en",
			"country":         "country_en",
			"city":            "rtl_city",
			"return":          "return_count",
			"unit_prod_cost":  "production_cost",
			"unit_gross_marg": "gross_margin",
			"prod_numb":       "product_number",
			"prod_type":       "product_type",
			"prod_name":       "product_name",
			"size":            "product_size",
			"intro_date":      "introduction_date",
			"halt_date":       "discontinued_date",
		} {
			v, err := out.Value(0, renamed)
			require.NoError(t, err)
			assert.Equal(t, source+"-value", v, renamed)
		}
	})

	t.Run("unselected columns are dropped", func(t *testing.T) {
		assert.False(t, out.HasColumn("rtl_name"))
	})
}

func TestApplyMissingColumn(t *testing.T) {
	t.Run("missing rename source", func(t *testing.T) {
		tbl := joinedTable(t)
		require.NoError(t, tbl.Drop("ship_date"))
		_, err := Apply(tbl)
		assert.True(t, etlerr.HasCode(err, etlerr.CodeColumnNotFound))
	})

	t.Run("missing selected column", func(t *testing.T) {
		tbl := joinedTable(t)
		require.NoError(t, tbl.Drop("region2"))
		_, err := Apply(tbl)
		assert.True(t, etlerr.HasCode(err, etlerr.CodeColumnNotFound))
	})
}
