package types

import (
	"relcore/pkg/primitives"
	"strconv"
)

// IntField is a 64-bit signed integer value.
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *IntField) Equals(other Field) bool {
	o, ok := other.(*IntField)
	if !ok {
		return false
	}
	return f.Value == o.Value
}

func (f *IntField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return compareWith(f, op, other)
}

func (f *IntField) compareTo(other Field) (int, error) {
	switch o := other.(type) {
	case *IntField:
		return threeWay(f.Value, o.Value), nil
	case *FloatField:
		return threeWay(float64(f.Value), o.Value), nil
	case *DecimalField:
		return NewDecimalFromInt(f.Value).compareTo(o)
	default:
		return 0, mismatch(f, other)
	}
}

func (f *IntField) Hash() (primitives.HashCode, error) {
	return fnvHash(toBytes64(uint64(f.Value))), nil // #nosec G115
}
