package tuple

import (
	"fmt"
	"relcore/pkg/primitives"
	"relcore/pkg/types"
	"strings"
)

// Tuple is a row: one value per column of its description. A nil field means
// the column has no value.
//
// A Tuple either owns its storage or is a view over another row's storage
// (see Restrict and Retype). Views read and write through to the base row and
// report ValuesOwned() == false.
type Tuple struct {
	TupleDesc *TupleDescription
	store     *[]types.Field
	index     []int // nil means identity mapping
	owned     bool
}

// NewTuple creates an owned tuple with every column unset.
func NewTuple(td *TupleDescription) *Tuple {
	fields := make([]types.Field, td.NumFields())
	return &Tuple{
		TupleDesc: td,
		store:     &fields,
		owned:     true,
	}
}

// FromFields creates an owned tuple from values in column order.
func FromFields(td *TupleDescription, fields ...types.Field) (*Tuple, error) {
	if len(fields) != td.NumFields() {
		return nil, fmt.Errorf("expected %d fields, got %d", td.NumFields(), len(fields))
	}
	t := NewTuple(td)
	for i, f := range fields {
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Tuple) slot(i int) int {
	if t.index == nil {
		return i
	}
	return t.index[i]
}

// ValuesOwned reports whether this row owns its storage.
func (t *Tuple) ValuesOwned() bool {
	return t.owned
}

// SetField sets the ith value; a nil field clears the column.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= t.TupleDesc.NumFields() {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, t.TupleDesc.NumFields())
	}

	if field != nil {
		converted, err := coerce(t.TupleDesc.Columns[i], field)
		if err != nil {
			return err
		}
		field = converted
	}

	(*t.store)[t.slot(i)] = field
	return nil
}

// GetField returns the ith value, nil when unset.
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= t.TupleDesc.NumFields() {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, t.TupleDesc.NumFields())
	}
	return (*t.store)[t.slot(i)], nil
}

// Field returns the ith value, nil when unset or out of range.
func (t *Tuple) Field(i int) types.Field {
	f, _ := t.GetField(i)
	return f
}

// HasValue reports whether the ith column is set.
func (t *Tuple) HasValue(i int) bool {
	return t.Field(i) != nil
}

// FieldByName returns the named value.
func (t *Tuple) FieldByName(name string) (types.Field, error) {
	i := t.TupleDesc.IndexOf(name)
	if i < 0 {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return t.GetField(i)
}

// SetFieldByName sets the named value.
func (t *Tuple) SetFieldByName(name string, field types.Field) error {
	i := t.TupleDesc.IndexOf(name)
	if i < 0 {
		return fmt.Errorf("column %q not found", name)
	}
	return t.SetField(i, field)
}

// Clone returns an owned copy. Field values are immutable and shared.
func (t *Tuple) Clone() *Tuple {
	c := NewTuple(t.TupleDesc)
	for i := range t.TupleDesc.NumFields() {
		(*c.store)[i] = t.Field(i)
	}
	return c
}

// Restrict returns a zero-copy view exposing the given columns of t, by
// position, under desc.
func (t *Tuple) Restrict(desc *TupleDescription, columns []int) (*Tuple, error) {
	if desc.NumFields() != len(columns) {
		return nil, fmt.Errorf("restriction has %d columns, description has %d",
			len(columns), desc.NumFields())
	}

	index := make([]int, len(columns))
	for i, c := range columns {
		if c < 0 || c >= t.TupleDesc.NumFields() {
			return nil, fmt.Errorf("restricted column %d out of bounds [0, %d)", c, t.TupleDesc.NumFields())
		}
		index[i] = t.slot(c)
	}

	return &Tuple{TupleDesc: desc, store: t.store, index: index}, nil
}

// Retype returns a zero-copy view of t under a description with the same
// column types, typically one with renamed columns.
func (t *Tuple) Retype(desc *TupleDescription) (*Tuple, error) {
	if !desc.Compatible(t.TupleDesc) {
		return nil, fmt.Errorf("cannot retype row %s as %s", t.TupleDesc, desc)
	}
	index := make([]int, desc.NumFields())
	for i := range index {
		index[i] = t.slot(i)
	}
	return &Tuple{TupleDesc: desc, store: t.store, index: index}, nil
}

// CopyTo assigns every column of t to the same-named column of target.
// Columns missing from target are skipped.
func (t *Tuple) CopyTo(target *Tuple) error {
	for i, c := range t.TupleDesc.Columns {
		j := target.TupleDesc.IndexOf(c.Name)
		if j < 0 {
			continue
		}
		if err := target.SetField(j, t.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

// Equals compares all columns positionally; nil equals nil.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil || t.TupleDesc.NumFields() != other.TupleDesc.NumFields() {
		return false
	}
	for i := range t.TupleDesc.NumFields() {
		if !types.FieldsEqual(t.Field(i), other.Field(i)) {
			return false
		}
	}
	return true
}

// EqualsOn compares the columns at the given positions of both rows.
func (t *Tuple) EqualsOn(other *Tuple, mine, theirs []int) bool {
	for i := range mine {
		if !types.FieldsEqual(t.Field(mine[i]), other.Field(theirs[i])) {
			return false
		}
	}
	return true
}

// Hash combines the hashes of every column.
func (t *Tuple) Hash() primitives.HashCode {
	var hash primitives.HashCode
	for i := range t.TupleDesc.NumFields() {
		hash = hash*31 + types.HashField(t.Field(i))
	}
	return hash
}

// String returns the values separated by tabs, "nil" for unset columns.
func (t *Tuple) String() string {
	parts := make([]string, t.TupleDesc.NumFields())
	for i := range parts {
		if f := t.Field(i); f != nil {
			parts[i] = f.String()
		} else {
			parts[i] = "nil"
		}
	}
	return strings.Join(parts, "\t")
}

// coerce applies the implicit integer up-casts the compiler would otherwise
// insert, so equal values always share a representation and a hash.
func coerce(column Column, field types.Field) (types.Field, error) {
	if field.Type() == column.Type {
		return field, nil
	}

	if i, ok := field.(*types.IntField); ok {
		switch column.Type {
		case types.DecimalType:
			return types.NewDecimalFromInt(i.Value), nil
		case types.FloatType:
			return types.NewFloatField(float64(i.Value)), nil
		}
	}

	return nil, fmt.Errorf("field type mismatch for %q: expected %v, got %v",
		column.Name, column.Type, field.Type())
}
