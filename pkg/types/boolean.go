package types

import (
	"relcore/pkg/primitives"
)

// BoolField represents a boolean value. Unknown is a nil Field, so three-valued
// logic lives in the scalar operators rather than here.
type BoolField struct {
	Value bool
}

func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

func (b *BoolField) Type() Type {
	return BoolType
}

func (b *BoolField) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (b *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	if !ok {
		return false
	}
	return b.Value == o.Value
}

// Compare orders false before true.
func (b *BoolField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return compareWith(b, op, other)
}

func (b *BoolField) compareTo(other Field) (int, error) {
	o, ok := other.(*BoolField)
	if !ok {
		return 0, mismatch(b, other)
	}
	switch {
	case b.Value == o.Value:
		return 0, nil
	case !b.Value:
		return -1, nil
	default:
		return 1, nil
	}
}

func (b *BoolField) Hash() (primitives.HashCode, error) {
	if b.Value {
		return fnvHash([]byte{1}), nil
	}
	return fnvHash([]byte{0}), nil
}
