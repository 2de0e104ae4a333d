package schema

import (
	"fmt"
	"strings"

	dberror "relcore/pkg/error"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// Column is the bound metadata of one result column.
type Column struct {
	Name       string
	Type       types.Type
	IsNilable  bool
	IsComputed bool
	ReadOnly   bool

	ShouldDefault  bool
	ShouldChange   bool
	ShouldValidate bool

	IsDefaultRemotable  bool
	IsChangeRemotable   bool
	IsValidateRemotable bool
}

// NewColumn creates a stored, remotable column with no business rules.
func NewColumn(name string, t types.Type) Column {
	return Column{
		Name:                name,
		Type:                t,
		IsDefaultRemotable:  true,
		IsChangeRemotable:   true,
		IsValidateRemotable: true,
	}
}

// TableVar is the metadata descriptor of a relation: columns, keys, orders
// and references. It is built once when an operator is bound and is never
// modified while rows flow.
type TableVar struct {
	Name       string
	Columns    []Column
	Keys       []Key
	Orders     []Order
	References []Reference

	// IsDistinctRequired marks a relation whose rows must be deduplicated
	// because no source key survived.
	IsDistinctRequired bool

	ShouldDefault  bool
	ShouldChange   bool
	ShouldValidate bool

	IsDefaultRemotable  bool
	IsChangeRemotable   bool
	IsValidateRemotable bool

	desc *tuple.TupleDescription
}

// NewTableVar creates a descriptor over the given columns. Column names must
// be unique.
func NewTableVar(name string, columns []Column) (*TableVar, error) {
	cols := make([]tuple.Column, len(columns))
	for i, c := range columns {
		cols[i] = tuple.Column{Name: c.Name, Type: c.Type}
	}

	desc, err := tuple.NewTupleDescFromColumns(cols)
	if err != nil {
		return nil, dberror.NewUser(dberror.CodeSchemaMismatch, "invalid column list").
			WithDetail("%v", err).
			In("NewTableVar", name)
	}

	tv := &TableVar{
		Name:    name,
		Columns: append([]Column(nil), columns...),
		desc:    desc,
	}
	tv.DetermineRemotable()
	return tv, nil
}

// MustTableVar is NewTableVar for column lists known to be valid.
func MustTableVar(name string, columns []Column) *TableVar {
	tv, err := NewTableVar(name, columns)
	if err != nil {
		panic(err)
	}
	return tv
}

// RowDesc returns the row description shared by every row of the relation.
func (tv *TableVar) RowDesc() *tuple.TupleDescription {
	return tv.desc
}

// ColumnIndex returns the position of the named column, or -1.
func (tv *TableVar) ColumnIndex(name string) int {
	return tv.desc.IndexOf(name)
}

// Column returns the named column.
func (tv *TableVar) Column(name string) (*Column, bool) {
	i := tv.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return &tv.Columns[i], true
}

// HasColumn reports whether the relation has a column with that name.
func (tv *TableVar) HasColumn(name string) bool {
	return tv.ColumnIndex(name) >= 0
}

// ColumnNames returns the column names in order.
func (tv *TableVar) ColumnNames() []string {
	return tv.desc.Names()
}

// ResolveColumns returns the positions of the named columns. An unknown name
// is a compile error.
func (tv *TableVar) ResolveColumns(names []string) ([]int, error) {
	indexes := make([]int, len(names))
	for i, name := range names {
		idx := tv.ColumnIndex(name)
		if idx < 0 {
			return nil, dberror.NewUser(dberror.CodeColumnNotFound, "column not found").
				WithDetail("column %q in %s", name, tv.Name)
		}
		indexes[i] = idx
	}
	return indexes, nil
}

// AddKey appends a key unless an equivalent one is already declared.
func (tv *TableVar) AddKey(key Key) {
	for _, k := range tv.Keys {
		if k.Equivalent(key) {
			return
		}
	}
	tv.Keys = append(tv.Keys, key)
}

// EnsureKey synthesizes an all-columns key when the relation has none and
// marks the relation distinct-required. It reports whether a key was added.
func (tv *TableVar) EnsureKey() bool {
	if len(tv.Keys) > 0 {
		return false
	}
	tv.Keys = append(tv.Keys, Key{Columns: tv.ColumnNames()})
	tv.IsDistinctRequired = true
	return true
}

// IsSingleton reports whether the relation is guaranteed to hold at most one
// row, which is the case exactly when it has an empty key.
func (tv *TableVar) IsSingleton() bool {
	for _, k := range tv.Keys {
		if len(k.Columns) == 0 {
			return true
		}
	}
	return false
}

// ClusteringKey returns the first declared key. Every bound relation has one.
func (tv *TableVar) ClusteringKey() Key {
	if len(tv.Keys) == 0 {
		return Key{Columns: tv.ColumnNames()}
	}
	return tv.Keys[0]
}

// HasOrder reports whether the relation already guarantees the given order.
func (tv *TableVar) HasOrder(o Order) bool {
	for _, existing := range tv.Orders {
		if existing.Satisfies(o) {
			return true
		}
	}
	return false
}

// DetermineRemotable aggregates the per-column business-rule flags into the
// table-level flags: a table should default, change or validate when any
// column should, and is remotable only when every column is.
func (tv *TableVar) DetermineRemotable() {
	tv.ShouldDefault, tv.ShouldChange, tv.ShouldValidate = false, false, false
	tv.IsDefaultRemotable, tv.IsChangeRemotable, tv.IsValidateRemotable = true, true, true

	for _, c := range tv.Columns {
		tv.ShouldDefault = tv.ShouldDefault || c.ShouldDefault
		tv.ShouldChange = tv.ShouldChange || c.ShouldChange
		tv.ShouldValidate = tv.ShouldValidate || c.ShouldValidate

		tv.IsDefaultRemotable = tv.IsDefaultRemotable && c.IsDefaultRemotable
		tv.IsChangeRemotable = tv.IsChangeRemotable && c.IsChangeRemotable
		tv.IsValidateRemotable = tv.IsValidateRemotable && c.IsValidateRemotable
	}
}

// Derive creates a descriptor for a derived relation over new columns. Keys,
// orders and references are left empty for the operator to fill.
func Derive(name string, columns []Column) (*TableVar, error) {
	return NewTableVar(name, columns)
}

// String renders the descriptor in a compact single-line form.
func (tv *TableVar) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(", tv.Name)
	for i, c := range tv.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %v", c.Name, c.Type)
		if c.IsNilable {
			b.WriteString(" nil")
		}
	}
	b.WriteString(")")
	for _, k := range tv.Keys {
		fmt.Fprintf(&b, " %v", k)
	}
	for _, o := range tv.Orders {
		fmt.Fprintf(&b, " %v", o)
	}
	return b.String()
}

// Clone returns a copy whose slices can be modified independently.
func (tv *TableVar) Clone() *TableVar {
	c := *tv
	c.Columns = append([]Column(nil), tv.Columns...)
	c.Keys = append([]Key(nil), tv.Keys...)
	c.Orders = append([]Order(nil), tv.Orders...)
	c.References = append([]Reference(nil), tv.References...)
	return &c
}
