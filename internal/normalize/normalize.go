// Package normalize aligns the raw source tables to the canonical
// column vocabulary before joining.
package normalize

import (
	"salesmart/internal/table"
)

// The source carries the order method in several languages; only the
// English variant survives, under the canonical name.
var localizedMethodColumns = []string{
	"order_method_fr",
	"order_method_de",
	"order_method_es",
	"order_method_ja",
}

// Transactions renames the English order-method and retailer display
// columns to their canonical names and drops the localized method
// duplicates. A missing column is a contract violation.
func Transactions(t *table.Table) error {
	if err := t.Rename("order_method_en", "order_method"); err != nil {
		return err
	}
	if err := t.Rename("retailer_label", "retailer_name"); err != nil {
		return err
	}
	for _, col := range localizedMethodColumns {
		if err := t.Drop(col); err != nil {
			return err
		}
	}
	return nil
}

// Retailers lower-cases every column name. The reference source uses
// inconsistent header capitalization; the join key must match the
// transaction side exactly.
func Retailers(t *table.Table) {
	t.LowerNames()
}
