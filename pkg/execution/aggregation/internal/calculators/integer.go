package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"

	"github.com/shopspring/decimal"
)

// IntCalculator handles integer-specific aggregation logic. AVG is exact and
// yields a decimal.
type IntCalculator struct {
	op    core.AggregateOp
	sum   int64
	count int64
	ext   extremum
}

func NewIntCalculator(op core.AggregateOp) *IntCalculator {
	return &IntCalculator{op: op, ext: extremum{largest: op == core.Max}}
}

func (ic *IntCalculator) ValidateOperation(op core.AggregateOp) error {
	switch op {
	case core.Min, core.Max, core.Sum, core.Avg:
		return nil
	default:
		return unsupported("integer", op)
	}
}

func (ic *IntCalculator) ResultType(op core.AggregateOp) types.Type {
	if op == core.Avg {
		return types.DecimalType
	}
	return types.IntType
}

func (ic *IntCalculator) Reset() {
	ic.sum, ic.count = 0, 0
	ic.ext.reset()
}

func (ic *IntCalculator) Add(value types.Field) error {
	intField, ok := value.(*types.IntField)
	if !ok {
		return fmt.Errorf("expected IntField, got %T", value)
	}

	switch ic.op {
	case core.Min, core.Max:
		return ic.ext.add(intField)
	default:
		ic.sum += intField.Value
		ic.count++
	}
	return nil
}

func (ic *IntCalculator) Result() (types.Field, error) {
	switch ic.op {
	case core.Min, core.Max:
		return ic.ext.best, nil
	}
	if ic.count == 0 {
		return nil, nil
	}
	if ic.op == core.Avg {
		avg := decimal.NewFromInt(ic.sum).Div(decimal.NewFromInt(ic.count))
		return types.NewDecimalField(avg), nil
	}
	return types.NewIntField(ic.sum), nil
}

func unsupported(kind string, op core.AggregateOp) error {
	return fmt.Errorf("%s aggregator does not support operation: %s", kind, op.String())
}
