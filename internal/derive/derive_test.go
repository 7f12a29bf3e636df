package derive

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmart/internal/table"
	"salesmart/pkg/etlerr"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type txRow struct {
	orderDate   string
	quantity    int64
	unitPrice   string
	unitCost    string
	returnCount any
	productLine any
	country     any
	region      any
}

func joinedTable(t *testing.T, rows ...txRow) *table.Table {
	t.Helper()
	tbl := table.New([]table.Column{
		{Name: "order_date", Kind: table.String},
		{Name: "quantity", Kind: table.Int},
		{Name: "unit_price", Kind: table.Decimal},
		{Name: "unit_cost", Kind: table.Decimal},
		{Name: "return_count", Kind: table.Int},
		{Name: "product_line", Kind: table.String},
		{Name: "country_en", Kind: table.String},
		{Name: "region_en", Kind: table.String},
	})
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow([]any{
			r.orderDate, r.quantity, dec(r.unitPrice), dec(r.unitCost),
			r.returnCount, r.productLine, r.country, r.region,
		}))
	}
	return tbl
}

func stringAt(t *testing.T, tbl *table.Table, r int, col string) string {
	t.Helper()
	v, err := tbl.Value(r, col)
	require.NoError(t, err)
	s, ok := v.(string)
	require.True(t, ok, "column %s is %T, want string", col, v)
	return s
}

func TestFinancialDerivations(t *testing.T) {
	tbl := joinedTable(t, txRow{
		orderDate: "2005-08-15", quantity: 4, unitPrice: "34.80", unitCost: "20.42",
		returnCount: int64(1), productLine: "Camping Equipment",
		country: "Japan", region: "Asia Pacific",
	})
	require.NoError(t, Apply(tbl))

	rev, err := tbl.Value(0, "revenue")
	require.NoError(t, err)
	assert.True(t, dec("139.20").Equal(rev.(decimal.Decimal)), "revenue = quantity * unit_price")

	cost, err := tbl.Value(0, "tot_prod_cost")
	require.NoError(t, err)
	assert.True(t, dec("81.68").Equal(cost.(decimal.Decimal)))

	profit, err := tbl.Value(0, "gross_profit")
	require.NoError(t, err)
	assert.True(t, dec("57.52").Equal(profit.(decimal.Decimal)), "gross_profit = revenue - tot_prod_cost")
}

func TestReturnCountFill(t *testing.T) {
	tbl := joinedTable(t,
		txRow{orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: nil, productLine: "Golf Equipment", country: "Japan", region: "Asia Pacific"},
		txRow{orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(2), productLine: "Golf Equipment", country: "Japan", region: "Asia Pacific"},
	)
	require.NoError(t, Apply(tbl))

	v, err := tbl.Value(0, "return_count")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v, "missing return count becomes literal zero")

	v, err = tbl.Value(1, "return_count")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestProductLineBuckets(t *testing.T) {
	t.Run("outdoor protection diverges between groupings", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Outdoor Protection",
			country: "Japan", region: "Asia Pacific",
		})
		require.NoError(t, Apply(tbl))
		assert.Equal(t, "Outdoor Prot", stringAt(t, tbl, 0, "prod_line"))
		assert.Equal(t, "Personal Acces", stringAt(t, tbl, 0, "prod_line_2"))
	})

	t.Run("all five long names shorten", func(t *testing.T) {
		want := map[string]string{
			"Camping Equipment":        "Camping Eqpt",
			"Golf Equipment":           "Golf Eqpt",
			"Mountaineering Equipment": "Mountain Eqpt",
			"Personal Accessories":     "Personal Acces",
			"Outdoor Protection":       "Outdoor Prot",
		}
		for long, short := range want {
			tbl := joinedTable(t, txRow{
				orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
				returnCount: int64(0), productLine: long, country: "Japan", region: "Asia Pacific",
			})
			require.NoError(t, Apply(tbl))
			assert.Equal(t, short, stringAt(t, tbl, 0, "prod_line"), long)
		}
	})

	t.Run("unknown value passes through", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Fishing Gear", country: "Japan", region: "Asia Pacific",
		})
		require.NoError(t, Apply(tbl))
		assert.Equal(t, "Fishing Gear", stringAt(t, tbl, 0, "prod_line"))
		assert.Equal(t, "Fishing Gear", stringAt(t, tbl, 0, "prod_line_2"))
	})

	t.Run("null product line stays null", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: nil, country: "Japan", region: "Asia Pacific",
		})
		require.NoError(t, Apply(tbl))
		v, err := tbl.Value(0, "prod_line")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestRegion2(t *testing.T) {
	t.Run("germany maps east regardless of source region", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Golf Equipment",
			country: "Germany", region: "Central Europe",
		})
		require.NoError(t, Apply(tbl))
		assert.Equal(t, "East Europe", stringAt(t, tbl, 0, "region2"))
	})

	t.Run("france maps west", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Golf Equipment",
			country: "France", region: "Central Europe",
		})
		require.NoError(t, Apply(tbl))
		assert.Equal(t, "West Europe", stringAt(t, tbl, 0, "region2"))
	})

	t.Run("unlisted country falls back to its region", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "2005-08-15", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Golf Equipment",
			country: "Japan", region: "Asia Pacific",
		})
		require.NoError(t, Apply(tbl))
		assert.Equal(t, "Asia Pacific", stringAt(t, tbl, 0, "region2"))
	})
}

func TestDateBuckets(t *testing.T) {
	bucketFor := func(t *testing.T, date string) (string, string, string) {
		tbl := joinedTable(t, txRow{
			orderDate: date, quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Golf Equipment",
			country: "Japan", region: "Asia Pacific",
		})
		require.NoError(t, Apply(tbl))
		return stringAt(t, tbl, 0, "fin_year"),
			stringAt(t, tbl, 0, "quarter_all"),
			stringAt(t, tbl, 0, "quarter_sel")
	}

	t.Run("mid-window date", func(t *testing.T) {
		fy, qa, qs := bucketFor(t, "2005-08-15")
		assert.Equal(t, "FY_05_06", fy)
		assert.Equal(t, "05_Q3", qa)
		assert.Equal(t, "05_Q3", qs)
	})

	t.Run("window edges are inclusive", func(t *testing.T) {
		fy, _, _ := bucketFor(t, "2005-06-30")
		assert.Equal(t, "FY_04_05", fy)

		fy, _, _ = bucketFor(t, "2005-07-01")
		assert.Equal(t, "FY_05_06", fy)

		_, qa, qs := bucketFor(t, "2004-07-01")
		assert.Equal(t, "04_Q3", qa)
		assert.Equal(t, "04_Q3", qs)

		_, qa, qs = bucketFor(t, "2007-06-30")
		assert.Equal(t, "07_Q2", qa)
		assert.Equal(t, "07_Q2", qs)
	})

	t.Run("dates outside every window fall back to other", func(t *testing.T) {
		fy, qa, qs := bucketFor(t, "2008-01-01")
		assert.Equal(t, "other", fy)
		assert.Equal(t, "other", qa)
		assert.Equal(t, "other", qs)
	})

	t.Run("quarter_sel is narrower than quarter_all", func(t *testing.T) {
		_, qa, qs := bucketFor(t, "2004-03-15")
		assert.Equal(t, "04_Q1", qa)
		assert.Equal(t, "other", qs)

		_, qa, qs = bucketFor(t, "2007-08-01")
		assert.Equal(t, "07_Q3", qa)
		assert.Equal(t, "other", qs)
	})

	t.Run("every in-range date matches exactly one window", func(t *testing.T) {
		start, _ := time.Parse(dateLayout, "2004-01-01")
		end, _ := time.Parse(dateLayout, "2007-09-30")
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			hits := 0
			for _, w := range quarterAllWindows {
				if !d.Before(w.From) && !d.After(w.To) {
					hits++
				}
			}
			require.Equal(t, 1, hits, "date %s", d.Format(dateLayout))
		}
	})
}

func TestApplyErrors(t *testing.T) {
	t.Run("missing required column", func(t *testing.T) {
		tbl := joinedTable(t)
		require.NoError(t, tbl.Drop("country_en"))
		err := Apply(tbl)
		assert.True(t, etlerr.HasCode(err, etlerr.CodeColumnNotFound))
	})

	t.Run("unparseable order date", func(t *testing.T) {
		tbl := joinedTable(t, txRow{
			orderDate: "15/08/2005", quantity: 1, unitPrice: "1", unitCost: "1",
			returnCount: int64(0), productLine: "Golf Equipment",
			country: "Japan", region: "Asia Pacific",
		})
		assert.Error(t, Apply(tbl))
	})
}
