package types

import (
	"relcore/pkg/primitives"

	"github.com/shopspring/decimal"
)

// DecimalField is an exact fixed-point value.
type DecimalField struct {
	Value decimal.Decimal
}

func NewDecimalField(value decimal.Decimal) *DecimalField {
	return &DecimalField{Value: value}
}

func NewDecimalFromInt(value int64) *DecimalField {
	return &DecimalField{Value: decimal.NewFromInt(value)}
}

// ParseDecimal parses a decimal literal such as "12.50".
func ParseDecimal(s string) (*DecimalField, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &DecimalField{Value: d}, nil
}

func (d *DecimalField) Type() Type {
	return DecimalType
}

func (d *DecimalField) String() string {
	return d.Value.String()
}

func (d *DecimalField) Equals(other Field) bool {
	o, ok := other.(*DecimalField)
	if !ok {
		return false
	}
	return d.Value.Equal(o.Value)
}

func (d *DecimalField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return compareWith(d, op, other)
}

func (d *DecimalField) compareTo(other Field) (int, error) {
	switch o := other.(type) {
	case *DecimalField:
		return d.Value.Cmp(o.Value), nil
	case *IntField:
		return d.Value.Cmp(decimal.NewFromInt(o.Value)), nil
	case *FloatField:
		return d.Value.Cmp(decimal.NewFromFloat(o.Value)), nil
	default:
		return 0, mismatch(d, other)
	}
}

// Hash uses the normalized string form so 1.50 and 1.5 hash alike.
func (d *DecimalField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(d.Value.String())), nil
}
