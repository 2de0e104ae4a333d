package tuple

import (
	"fmt"
	"relcore/pkg/primitives"
	"relcore/pkg/types"
	"strings"
)

// RowField wraps a row so it can be carried wherever a value is expected,
// for example as a list element or an extraction result.
type RowField struct {
	Row *Tuple
}

func NewRowField(row *Tuple) *RowField {
	return &RowField{Row: row}
}

func (r *RowField) Type() types.Type {
	return types.RowType
}

func (r *RowField) String() string {
	return "row{" + strings.ReplaceAll(r.Row.String(), "\t", ", ") + "}"
}

func (r *RowField) Equals(other types.Field) bool {
	o, ok := other.(*RowField)
	if !ok {
		return false
	}
	return r.Row.Equals(o.Row)
}

func (r *RowField) Compare(op primitives.Predicate, other types.Field) (bool, error) {
	switch op {
	case primitives.Equals:
		return r.Equals(other), nil
	case primitives.NotEqual:
		return !r.Equals(other), nil
	default:
		return false, fmt.Errorf("rows support only equality comparison, got %v", op)
	}
}

func (r *RowField) Hash() (primitives.HashCode, error) {
	return r.Row.Hash(), nil
}

// List is an ordered sequence of values of one element type. When the
// element type is a row, RowDesc describes the elements and every element
// is a *RowField.
type List struct {
	ElementType types.Type
	RowDesc     *TupleDescription
	elements    []types.Field
}

// NewList creates an empty scalar list.
func NewList(elementType types.Type) *List {
	return &List{ElementType: elementType}
}

// NewRowList creates an empty list of rows described by desc.
func NewRowList(desc *TupleDescription) *List {
	return &List{ElementType: types.RowType, RowDesc: desc}
}

// Append adds an element. Nil elements are allowed.
func (l *List) Append(f types.Field) error {
	if f != nil && f.Type() != l.ElementType {
		return fmt.Errorf("list of %v cannot hold %v", l.ElementType, f.Type())
	}
	if rf, ok := f.(*RowField); ok && l.RowDesc != nil && !rf.Row.TupleDesc.Compatible(l.RowDesc) {
		return fmt.Errorf("row %s does not match list row type %s", rf.Row.TupleDesc, l.RowDesc)
	}
	l.elements = append(l.elements, f)
	return nil
}

// Get returns the ith element.
func (l *List) Get(i int) (types.Field, error) {
	if i < 0 || i >= len(l.elements) {
		return nil, fmt.Errorf("list index %d out of bounds [0, %d)", i, len(l.elements))
	}
	return l.elements[i], nil
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.elements)
}

// ListField wraps a list as a value.
type ListField struct {
	List *List
}

func NewListField(l *List) *ListField {
	return &ListField{List: l}
}

func (f *ListField) Type() types.Type {
	return types.ListType
}

func (f *ListField) String() string {
	parts := make([]string, f.List.Len())
	for i, e := range f.List.elements {
		if e == nil {
			parts[i] = "nil"
		} else {
			parts[i] = e.String()
		}
	}
	return "list{" + strings.Join(parts, ", ") + "}"
}

func (f *ListField) Equals(other types.Field) bool {
	o, ok := other.(*ListField)
	if !ok || o.List.Len() != f.List.Len() {
		return false
	}
	for i := range f.List.elements {
		if !types.FieldsEqual(f.List.elements[i], o.List.elements[i]) {
			return false
		}
	}
	return true
}

func (f *ListField) Compare(op primitives.Predicate, other types.Field) (bool, error) {
	switch op {
	case primitives.Equals:
		return f.Equals(other), nil
	case primitives.NotEqual:
		return !f.Equals(other), nil
	default:
		return false, fmt.Errorf("lists support only equality comparison, got %v", op)
	}
}

func (f *ListField) Hash() (primitives.HashCode, error) {
	var hash primitives.HashCode
	for _, e := range f.List.elements {
		hash = hash*31 + types.HashField(e)
	}
	return hash, nil
}
