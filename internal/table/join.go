package table

import (
	"strconv"

	"github.com/shopspring/decimal"

	"salesmart/pkg/etlerr"
)

// LeftJoin joins t to right on the equally-named key column. Every left
// row appears exactly once, in input order; unmatched rows carry nulls
// for all right-side columns. The key column stays left-side: it keeps
// the left row's value whether or not it matched, and the right copy is
// not duplicated in the result.
//
// The right side must be key-unique: a repeated key would fan out rows
// and silently break the row-count invariant, so it fails instead.
func (t *Table) LeftJoin(right *Table, key string) (*Table, error) {
	li, ok := t.index[key]
	if !ok {
		return nil, etlerr.NewColumnNotFound(key)
	}
	ri, ok := right.index[key]
	if !ok {
		return nil, etlerr.NewColumnNotFound(key)
	}
	if !compatibleKeyKinds(t.cols[li].Kind, right.cols[ri].Kind) {
		return nil, etlerr.NewJoinKeyType(key, t.cols[li].Kind.String(), right.cols[ri].Kind.String())
	}

	// Right-side columns carried into the result, in order, key excluded.
	carried := make([]int, 0, len(right.cols)-1)
	cols := t.Columns()
	for i, c := range right.cols {
		if i == ri {
			continue
		}
		if t.HasColumn(c.Name) {
			return nil, etlerr.NewSchemaMismatch("", "join would duplicate column "+c.Name)
		}
		carried = append(carried, i)
		cols = append(cols, c)
	}

	lookup := make(map[string][]any, len(right.rows))
	for _, row := range right.rows {
		k, ok := canonicalKey(row[ri])
		if !ok {
			continue // null reference keys can never match
		}
		if _, dup := lookup[k]; dup {
			return nil, etlerr.NewDuplicateJoinKey(key, k)
		}
		lookup[k] = row
	}

	out := New(cols)
	out.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		cells := make([]any, 0, len(cols))
		cells = append(cells, row...)
		var match []any
		if k, ok := canonicalKey(row[li]); ok {
			match = lookup[k]
		}
		for _, i := range carried {
			if match == nil {
				cells = append(cells, nil)
			} else {
				cells = append(cells, match[i])
			}
		}
		out.rows[r] = cells
	}
	return out, nil
}

// compatibleKeyKinds allows numeric-to-numeric and text-to-text key
// comparison. Numeric-vs-text must be coerced by the caller explicitly.
func compatibleKeyKinds(l, r Kind) bool {
	if l == String || r == String {
		return l == r
	}
	return true
}

// canonicalKey maps a key cell to a form where int64 and integer-valued
// decimals compare equal.
func canonicalKey(v any) (string, bool) {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10), true
	case decimal.Decimal:
		if x.IsInteger() {
			return x.Truncate(0).String(), true
		}
		return x.String(), true
	case string:
		return x, true
	default:
		return "", false
	}
}
