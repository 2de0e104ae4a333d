package tuple

import (
	"fmt"
	"relcore/pkg/types"
	"strings"
)

// Column is one named, typed slot of a row description.
type Column struct {
	Name string
	Type types.Type
}

// TupleDescription describes the ordered columns of a row. It is never
// modified after construction; operators that change the column set build a
// new description.
type TupleDescription struct {
	Columns []Column
	index   map[string]int
}

// NewTupleDesc creates a description from parallel type and name slices.
// Names must be unique.
func NewTupleDesc(fieldTypes []types.Type, fieldNames []string) (*TupleDescription, error) {
	if len(fieldNames) != len(fieldTypes) {
		return nil, fmt.Errorf("field names length (%d) must match field types length (%d)",
			len(fieldNames), len(fieldTypes))
	}

	columns := make([]Column, len(fieldTypes))
	for i := range fieldTypes {
		columns[i] = Column{Name: fieldNames[i], Type: fieldTypes[i]}
	}
	return NewTupleDescFromColumns(columns)
}

// NewTupleDescFromColumns creates a description from a column list.
func NewTupleDescFromColumns(columns []Column) (*TupleDescription, error) {
	td := &TupleDescription{
		Columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(td.Columns, columns)

	for i, c := range columns {
		if _, dup := td.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		td.index[c.Name] = i
	}
	return td, nil
}

// MustTupleDesc is NewTupleDesc for descriptions known to be valid.
func MustTupleDesc(fieldTypes []types.Type, fieldNames []string) *TupleDescription {
	td, err := NewTupleDesc(fieldTypes, fieldNames)
	if err != nil {
		panic(fmt.Sprintf("invalid tuple description: %v", err))
	}
	return td
}

// NumFields returns the number of columns.
func (td *TupleDescription) NumFields() int {
	return len(td.Columns)
}

// IndexOf returns the position of the named column or -1.
func (td *TupleDescription) IndexOf(name string) int {
	if i, ok := td.index[name]; ok {
		return i
	}
	return -1
}

// Names returns the column names in order.
func (td *TupleDescription) Names() []string {
	names := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		names[i] = c.Name
	}
	return names
}

// TypeAtIndex returns the type of the ith column.
func (td *TupleDescription) TypeAtIndex(i int) (types.Type, error) {
	if i < 0 || i >= len(td.Columns) {
		return 0, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(td.Columns))
	}
	return td.Columns[i].Type, nil
}

// Equals checks that both descriptions have the same names and types in order.
func (td *TupleDescription) Equals(other *TupleDescription) bool {
	if other == nil || len(td.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range td.Columns {
		if c != other.Columns[i] {
			return false
		}
	}
	return true
}

// Compatible checks that both descriptions have the same types in order,
// ignoring names.
func (td *TupleDescription) Compatible(other *TupleDescription) bool {
	if other == nil || len(td.Columns) != len(other.Columns) {
		return false
	}
	for i, c := range td.Columns {
		if c.Type != other.Columns[i].Type {
			return false
		}
	}
	return true
}

// Project returns a description holding the named columns, in the given order.
func (td *TupleDescription) Project(names []string) (*TupleDescription, []int, error) {
	columns := make([]Column, len(names))
	indexes := make([]int, len(names))
	for i, name := range names {
		idx := td.IndexOf(name)
		if idx < 0 {
			return nil, nil, fmt.Errorf("column %q not found", name)
		}
		columns[i] = td.Columns[idx]
		indexes[i] = idx
	}

	desc, err := NewTupleDescFromColumns(columns)
	if err != nil {
		return nil, nil, err
	}
	return desc, indexes, nil
}

// String returns "name:Type,..." for the description.
func (td *TupleDescription) String() string {
	parts := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		parts[i] = fmt.Sprintf("%s:%v", c.Name, c.Type)
	}
	return strings.Join(parts, ",")
}
