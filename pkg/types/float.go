package types

import (
	"math"
	"relcore/pkg/primitives"
	"strconv"
)

const (
	epsilon = 1e-9
)

// FloatField is a 64-bit floating point value. Equality is epsilon based.
type FloatField struct {
	Value float64
}

func NewFloatField(value float64) *FloatField {
	return &FloatField{Value: value}
}

func (f *FloatField) Type() Type {
	return FloatType
}

func (f *FloatField) String() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

func (f *FloatField) Equals(other Field) bool {
	o, ok := other.(*FloatField)
	if !ok {
		return false
	}
	return math.Abs(f.Value-o.Value) < epsilon
}

func (f *FloatField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return compareWith(f, op, other)
}

func (f *FloatField) compareTo(other Field) (int, error) {
	var v float64
	switch o := other.(type) {
	case *FloatField:
		v = o.Value
	case *IntField:
		v = float64(o.Value)
	case *DecimalField:
		v = o.Value.InexactFloat64()
	default:
		return 0, mismatch(f, other)
	}

	if math.Abs(f.Value-v) < epsilon {
		return 0, nil
	}
	return threeWay(f.Value, v), nil
}

// Hash rounds to the equality epsilon so that equal floats hash alike.
func (f *FloatField) Hash() (primitives.HashCode, error) {
	rounded := math.Round(f.Value/epsilon) * epsilon
	return fnvHash(toBytes64(math.Float64bits(rounded))), nil
}
