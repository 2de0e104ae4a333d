package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"

	"github.com/shopspring/decimal"
)

// DecimalCalculator aggregates exact decimal values.
type DecimalCalculator struct {
	op    core.AggregateOp
	sum   decimal.Decimal
	count int64
	ext   extremum
}

func NewDecimalCalculator(op core.AggregateOp) *DecimalCalculator {
	return &DecimalCalculator{op: op, ext: extremum{largest: op == core.Max}}
}

func (dc *DecimalCalculator) ValidateOperation(op core.AggregateOp) error {
	switch op {
	case core.Min, core.Max, core.Sum, core.Avg:
		return nil
	default:
		return unsupported("decimal", op)
	}
}

func (dc *DecimalCalculator) ResultType(core.AggregateOp) types.Type {
	return types.DecimalType
}

func (dc *DecimalCalculator) Reset() {
	dc.sum, dc.count = decimal.Zero, 0
	dc.ext.reset()
}

func (dc *DecimalCalculator) Add(value types.Field) error {
	decField, ok := value.(*types.DecimalField)
	if !ok {
		return fmt.Errorf("expected DecimalField, got %T", value)
	}

	switch dc.op {
	case core.Min, core.Max:
		return dc.ext.add(decField)
	default:
		dc.sum = dc.sum.Add(decField.Value)
		dc.count++
	}
	return nil
}

func (dc *DecimalCalculator) Result() (types.Field, error) {
	switch dc.op {
	case core.Min, core.Max:
		return dc.ext.best, nil
	}
	if dc.count == 0 {
		return nil, nil
	}
	if dc.op == core.Avg {
		return types.NewDecimalField(dc.sum.Div(decimal.NewFromInt(dc.count))), nil
	}
	return types.NewDecimalField(dc.sum), nil
}
