package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"
)

// GetCalculator returns a Calculator appropriate for the given field type and aggregate operation.
//
// Parameters:
//   - fieldType: The type of the field to be aggregated (e.g., IntType, BoolType, StringType, FloatType).
//   - op: The aggregate operation to perform (e.g., Min, Max, Count, Avg, etc.).
//
// Returns:
//   - core.Calculator: An implementation suitable for the field type and operation.
//   - error: An error if the field type is unsupported or does not support op.
func GetCalculator(fieldType types.Type, op core.AggregateOp) (core.Calculator, error) {
	var calc core.Calculator
	switch {
	case op == core.Count:
		calc = NewCountCalculator()
	case fieldType == types.IntType:
		calc = NewIntCalculator(op)
	case fieldType == types.FloatType:
		calc = NewFloatCalculator(op)
	case fieldType == types.DecimalType:
		calc = NewDecimalCalculator(op)
	case fieldType == types.BoolType:
		calc = NewBooleanCalculator(op)
	case fieldType == types.StringType:
		calc = NewStringCalculator(op)
	default:
		return nil, fmt.Errorf("unsupported field type for aggregation: %v", fieldType)
	}

	if err := calc.ValidateOperation(op); err != nil {
		return nil, err
	}
	return calc, nil
}

// extremum tracks the smallest or largest value seen.
type extremum struct {
	largest bool
	best    types.Field
}

func (e *extremum) reset() {
	e.best = nil
}

func (e *extremum) add(value types.Field) error {
	if e.best == nil {
		e.best = value
		return nil
	}
	cmp, err := types.CompareFields(value, e.best)
	if err != nil {
		return err
	}
	if (e.largest && cmp > 0) || (!e.largest && cmp < 0) {
		e.best = value
	}
	return nil
}
