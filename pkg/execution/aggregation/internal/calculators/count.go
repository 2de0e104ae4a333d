package calculators

import (
	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"
)

// CountCalculator counts values of any type.
type CountCalculator struct {
	count int64
}

func NewCountCalculator() *CountCalculator {
	return &CountCalculator{}
}

func (cc *CountCalculator) ValidateOperation(op core.AggregateOp) error {
	if op != core.Count {
		return unsupported("count", op)
	}
	return nil
}

func (cc *CountCalculator) ResultType(core.AggregateOp) types.Type {
	return types.IntType
}

func (cc *CountCalculator) Reset() {
	cc.count = 0
}

func (cc *CountCalculator) Add(types.Field) error {
	cc.count++
	return nil
}

func (cc *CountCalculator) Result() (types.Field, error) {
	return types.NewIntField(cc.count), nil
}
