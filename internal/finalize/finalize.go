// Package finalize curates the joined, derived table into the persisted
// output schema: last-mile renames plus a fixed column order. Columns
// outside the selection are dropped.
package finalize

import (
	"salesmart/internal/table"
)

// renames are applied before selection; presentation names only.
var renames = [][2]string{
	{"ship_date", "order_ship_date"},
	{"retailer_type_en", "retailer_type"},
	{"region_en", "region"},
	{"country_en", "country"},
	{"rtl_city", "city"},
	{"return_count", "return"},
	{"production_cost", "unit_prod_cost"},
	{"gross_margin", "unit_gross_marg"},
	{"product_number", "prod_numb"},
	{"product_type", "prod_type"},
	{"product_name", "prod_name"},
	{"product_size", "size"},
	{"introduction_date", "intro_date"},
	{"discontinued_date", "halt_date"},
}

// OutputColumns is the persisted schema, in order.
var OutputColumns = []string{
	"order_number",
	"order_date",
	"close_date",
	"order_ship_date",
	"ord_date",
	"fin_year",
	"quarter_all",
	"quarter_sel",
	"order_method",
	"retailer_name",
	"retailer_type",
	"region",
	"region2",
	"country",
	"city",
	"rtl_site_code",
	"promotion_code",
	"return",
	"quantity",
	"unit_price",
	"unit_cost",
	"revenue",
	"tot_prod_cost",
	"gross_profit",
	"prod_numb",
	"prod_line",
	"prod_line_2",
	"prod_type",
	"prod_name",
	"brand",
	"color",
	"size",
	"unit_prod_cost",
	"unit_gross_marg",
	"intro_date",
	"halt_date",
}

// Apply renames and selects the output schema. Any column the selection
// references that is absent from t is a contract violation.
func Apply(t *table.Table) (*table.Table, error) {
	for _, r := range renames {
		if err := t.Rename(r[0], r[1]); err != nil {
			return nil, err
		}
	}
	return t.Select(OutputColumns...)
}
