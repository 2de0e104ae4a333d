package scalar

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	dberror "relcore/pkg/error"
	"relcore/pkg/types"
)

// promote converts two numeric arguments to a common type: Float when
// either is a Float, Decimal when either is a Decimal, Int otherwise.
func promote(a, b types.Field) (types.Field, types.Field, bool) {
	if !a.Type().IsNumeric() || !b.Type().IsNumeric() {
		return nil, nil, false
	}
	switch {
	case a.Type() == types.FloatType || b.Type() == types.FloatType:
		return asFloat(a), asFloat(b), true
	case a.Type() == types.DecimalType || b.Type() == types.DecimalType:
		return asDecimal(a), asDecimal(b), true
	default:
		return a, b, true
	}
}

func asFloat(f types.Field) *types.FloatField {
	switch v := f.(type) {
	case *types.FloatField:
		return v
	case *types.DecimalField:
		return types.NewFloatField(v.Value.InexactFloat64())
	default:
		return types.NewFloatField(float64(f.(*types.IntField).Value))
	}
}

func asDecimal(f types.Field) *types.DecimalField {
	if d, ok := f.(*types.DecimalField); ok {
		return d
	}
	return types.NewDecimalFromInt(f.(*types.IntField).Value)
}

func divisionByZero(operator string) error {
	return dberror.NewUser(dberror.CodeDivisionByZero, "division by zero").In("Invoke", operator)
}

// numeric builds a binary operator from one implementation per type. A nil
// implementation means the operator is undefined for that type.
type numeric struct {
	ints     func(a, b int64) (types.Field, error)
	floats   func(a, b float64) (types.Field, error)
	decimals func(a, b decimal.Decimal) (types.Field, error)
}

func (n numeric) operator(name string) *function {
	return binary(name, func(a, b types.Field) (types.Field, error) {
		pa, pb, ok := promote(a, b)
		if !ok {
			return nil, badArgument(name, a, b)
		}
		switch x := pa.(type) {
		case *types.IntField:
			if n.ints != nil {
				return n.ints(x.Value, pb.(*types.IntField).Value)
			}
		case *types.FloatField:
			if n.floats != nil {
				return n.floats(x.Value, pb.(*types.FloatField).Value)
			}
		case *types.DecimalField:
			if n.decimals != nil {
				return n.decimals(x.Value, pb.(*types.DecimalField).Value)
			}
		}
		return nil, badArgument(name, a, b)
	})
}

func intResult(v int64) (types.Field, error) { return types.NewIntField(v), nil }
func floatResult(v float64) (types.Field, error) { return types.NewFloatField(v), nil }
func decimalResult(v decimal.Decimal) (types.Field, error) { return types.NewDecimalField(v), nil }

func arithmeticOperators() []Operator {
	add := numeric{
		ints:     func(a, b int64) (types.Field, error) { return intResult(a + b) },
		floats:   func(a, b float64) (types.Field, error) { return floatResult(a + b) },
		decimals: func(a, b decimal.Decimal) (types.Field, error) { return decimalResult(a.Add(b)) },
	}.operator("add")

	// Strings concatenate under add.
	numericAdd := add.eval
	add.eval = func(args []types.Field) (types.Field, error) {
		a, aok := args[0].(*types.StringField)
		b, bok := args[1].(*types.StringField)
		if aok && bok {
			var sb strings.Builder
			sb.WriteString(a.Value)
			sb.WriteString(b.Value)
			return types.NewStringField(sb.String()), nil
		}
		return numericAdd(args)
	}

	subtract := numeric{
		ints:     func(a, b int64) (types.Field, error) { return intResult(a - b) },
		floats:   func(a, b float64) (types.Field, error) { return floatResult(a - b) },
		decimals: func(a, b decimal.Decimal) (types.Field, error) { return decimalResult(a.Sub(b)) },
	}.operator("subtract")

	multiply := numeric{
		ints:     func(a, b int64) (types.Field, error) { return intResult(a * b) },
		floats:   func(a, b float64) (types.Field, error) { return floatResult(a * b) },
		decimals: func(a, b decimal.Decimal) (types.Field, error) { return decimalResult(a.Mul(b)) },
	}.operator("multiply")

	// Integer division is exact and yields a Decimal.
	divide := numeric{
		ints: func(a, b int64) (types.Field, error) {
			if b == 0 {
				return nil, divisionByZero("divide")
			}
			return decimalResult(decimal.NewFromInt(a).Div(decimal.NewFromInt(b)))
		},
		floats: func(a, b float64) (types.Field, error) {
			if b == 0 {
				return nil, divisionByZero("divide")
			}
			return floatResult(a / b)
		},
		decimals: func(a, b decimal.Decimal) (types.Field, error) {
			if b.IsZero() {
				return nil, divisionByZero("divide")
			}
			return decimalResult(a.Div(b))
		},
	}.operator("divide")

	div := numeric{
		ints: func(a, b int64) (types.Field, error) {
			if b == 0 {
				return nil, divisionByZero("div")
			}
			return intResult(a / b)
		},
	}.operator("div")

	mod := numeric{
		ints: func(a, b int64) (types.Field, error) {
			if b == 0 {
				return nil, divisionByZero("mod")
			}
			return intResult(a % b)
		},
		floats: func(a, b float64) (types.Field, error) {
			if b == 0 {
				return nil, divisionByZero("mod")
			}
			return floatResult(math.Mod(a, b))
		},
		decimals: func(a, b decimal.Decimal) (types.Field, error) {
			if b.IsZero() {
				return nil, divisionByZero("mod")
			}
			return decimalResult(a.Mod(b))
		},
	}.operator("mod")

	negate := unary("negate", func(a types.Field) (types.Field, error) {
		switch v := a.(type) {
		case *types.IntField:
			return intResult(-v.Value)
		case *types.FloatField:
			return floatResult(-v.Value)
		case *types.DecimalField:
			return decimalResult(v.Value.Neg())
		default:
			return nil, badArgument("negate", a)
		}
	})

	abs := unary("abs", func(a types.Field) (types.Field, error) {
		switch v := a.(type) {
		case *types.IntField:
			if v.Value < 0 {
				return intResult(-v.Value)
			}
			return v, nil
		case *types.FloatField:
			return floatResult(math.Abs(v.Value))
		case *types.DecimalField:
			return decimalResult(v.Value.Abs())
		default:
			return nil, badArgument("abs", a)
		}
	})

	return []Operator{add, subtract, multiply, divide, div, mod, negate, abs}
}

func bitwise(name string, fn func(a, b int64) int64) *function {
	return binary(name, func(a, b types.Field) (types.Field, error) {
		x, aok := a.(*types.IntField)
		y, bok := b.(*types.IntField)
		if !aok || !bok {
			return nil, badArgument(name, a, b)
		}
		return intResult(fn(x.Value, y.Value))
	})
}

func shift(name string, fn func(a int64, n uint) int64) *function {
	return binary(name, func(a, b types.Field) (types.Field, error) {
		x, aok := a.(*types.IntField)
		y, bok := b.(*types.IntField)
		if !aok || !bok || y.Value < 0 {
			return nil, badArgument(name, a, b)
		}
		return intResult(fn(x.Value, uint(y.Value)))
	})
}

func bitwiseOperators() []Operator {
	return []Operator{
		bitwise("bitand", func(a, b int64) int64 { return a & b }),
		bitwise("bitor", func(a, b int64) int64 { return a | b }),
		bitwise("bitxor", func(a, b int64) int64 { return a ^ b }),
		unary("bitnot", func(a types.Field) (types.Field, error) {
			x, ok := a.(*types.IntField)
			if !ok {
				return nil, badArgument("bitnot", a)
			}
			return intResult(^x.Value)
		}),
		shift("shiftleft", func(a int64, n uint) int64 { return a << n }),
		shift("shiftright", func(a int64, n uint) int64 { return a >> n }),
	}
}
