package schema

import (
	"fmt"
	"strings"

	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// SortFunc is a three-way comparison of two non-nil values.
type SortFunc func(a, b types.Field) (int, error)

// OrderColumn is one component of an order.
type OrderColumn struct {
	Column    string
	Ascending bool

	// IncludeNils places rows without a value first; otherwise they sort last.
	IncludeNils bool

	// Sort overrides the natural ordering of the column type.
	Sort SortFunc
}

// Order is a guaranteed or requested sequencing of rows.
type Order struct {
	Columns     []OrderColumn
	IsInherited bool
}

// Ascending builds an order over the named columns, all ascending.
func Ascending(columns ...string) Order {
	o := Order{Columns: make([]OrderColumn, len(columns))}
	for i, c := range columns {
		o.Columns[i] = OrderColumn{Column: c, Ascending: true, IncludeNils: true}
	}
	return o
}

// Descending builds an order over the named columns, all descending.
func Descending(columns ...string) Order {
	o := Ascending(columns...)
	for i := range o.Columns {
		o.Columns[i].Ascending = false
	}
	return o
}

// ColumnNames returns the order column names in sequence.
func (o Order) ColumnNames() []string {
	names := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		names[i] = c.Column
	}
	return names
}

// IncludesKey reports whether every column of key appears in the order.
func (o Order) IncludesKey(key Key) bool {
	return key.IsSubsetOf(o.ColumnNames())
}

// Satisfies reports whether rows sequenced by o are also sequenced by
// requested, i.e. requested is a prefix of o with matching directions.
func (o Order) Satisfies(requested Order) bool {
	if len(requested.Columns) > len(o.Columns) {
		return false
	}
	for i, rc := range requested.Columns {
		c := o.Columns[i]
		if c.Column != rc.Column || c.Ascending != rc.Ascending || c.IncludeNils != rc.IncludeNils {
			return false
		}
		if (c.Sort == nil) != (rc.Sort == nil) {
			return false
		}
	}
	return true
}

// Compare orders two rows that both carry every order column. The rows are
// resolved by column name, so they may have different shapes.
func (o Order) Compare(a, b *tuple.Tuple) (int, error) {
	for _, oc := range o.Columns {
		av, err := a.FieldByName(oc.Column)
		if err != nil {
			return 0, err
		}
		bv, err := b.FieldByName(oc.Column)
		if err != nil {
			return 0, err
		}

		cmp, err := oc.compare(av, bv)
		if err != nil {
			return 0, fmt.Errorf("ordering by %s: %w", oc.Column, err)
		}
		if cmp != 0 {
			return cmp, nil
		}
	}
	return 0, nil
}

func (oc OrderColumn) compare(a, b types.Field) (int, error) {
	var cmp int
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil, b == nil:
		cmp = -1
		if b == nil {
			cmp = 1
		}
		if !oc.IncludeNils {
			cmp = -cmp
		}
		return cmp, nil
	}

	var err error
	if oc.Sort != nil {
		cmp, err = oc.Sort(a, b)
	} else {
		cmp, err = types.CompareFields(a, b)
	}
	if err != nil {
		return 0, err
	}
	if !oc.Ascending {
		cmp = -cmp
	}
	return cmp, nil
}

func (o Order) String() string {
	parts := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		dir := "asc"
		if !c.Ascending {
			dir = "desc"
		}
		parts[i] = c.Column + " " + dir
	}
	return "order{" + strings.Join(parts, ", ") + "}"
}
