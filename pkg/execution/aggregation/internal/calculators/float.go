package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"
)

// FloatCalculator handles float-specific aggregation logic
type FloatCalculator struct {
	op    core.AggregateOp
	sum   float64
	count int64
	ext   extremum
}

func NewFloatCalculator(op core.AggregateOp) *FloatCalculator {
	return &FloatCalculator{op: op, ext: extremum{largest: op == core.Max}}
}

func (fc *FloatCalculator) ValidateOperation(op core.AggregateOp) error {
	switch op {
	case core.Min, core.Max, core.Sum, core.Avg:
		return nil
	default:
		return unsupported("float", op)
	}
}

func (fc *FloatCalculator) ResultType(core.AggregateOp) types.Type {
	return types.FloatType
}

func (fc *FloatCalculator) Reset() {
	fc.sum, fc.count = 0, 0
	fc.ext.reset()
}

func (fc *FloatCalculator) Add(value types.Field) error {
	floatField, ok := value.(*types.FloatField)
	if !ok {
		return fmt.Errorf("expected FloatField, got %T", value)
	}

	switch fc.op {
	case core.Min, core.Max:
		return fc.ext.add(floatField)
	default:
		fc.sum += floatField.Value
		fc.count++
	}
	return nil
}

func (fc *FloatCalculator) Result() (types.Field, error) {
	switch fc.op {
	case core.Min, core.Max:
		return fc.ext.best, nil
	}
	if fc.count == 0 {
		return nil, nil
	}
	if fc.op == core.Avg {
		return types.NewFloatField(fc.sum / float64(fc.count)), nil
	}
	return types.NewFloatField(fc.sum), nil
}
