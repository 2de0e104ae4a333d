package scalar

import (
	"relcore/pkg/primitives"
	"relcore/pkg/types"
)

// aligned promotes numeric arguments to a common type and leaves other
// arguments as they are.
func aligned(a, b types.Field) (types.Field, types.Field) {
	if pa, pb, ok := promote(a, b); ok {
		return pa, pb
	}
	return a, b
}

func comparison(name string, op primitives.Predicate) *function {
	return binary(name, func(a, b types.Field) (types.Field, error) {
		pa, pb := aligned(a, b)
		holds, err := pa.Compare(op, pb)
		if err != nil {
			return nil, badArgument(name, a, b)
		}
		return types.NewBoolField(holds), nil
	})
}

func comparisonOperators() []Operator {
	return []Operator{
		comparison("equal", primitives.Equals),
		comparison("notequal", primitives.NotEqual),
		comparison("less", primitives.LessThan),
		comparison("lessorequal", primitives.LessThanOrEqual),
		comparison("greater", primitives.GreaterThan),
		comparison("greaterorequal", primitives.GreaterThanOrEqual),
		comparison("like", primitives.Like),
		binary("compare", func(a, b types.Field) (types.Field, error) {
			pa, pb := aligned(a, b)
			cmp, err := types.CompareFields(pa, pb)
			if err != nil {
				return nil, badArgument("compare", a, b)
			}
			return intResult(int64(cmp))
		}),
	}
}
