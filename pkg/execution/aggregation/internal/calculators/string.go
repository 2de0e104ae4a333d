package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"
)

type StringCalculator struct {
	op  core.AggregateOp
	ext extremum
}

func NewStringCalculator(op core.AggregateOp) *StringCalculator {
	return &StringCalculator{op: op, ext: extremum{largest: op == core.Max}}
}

func (sc *StringCalculator) ValidateOperation(op core.AggregateOp) error {
	switch op {
	case core.Min, core.Max:
		return nil
	default:
		return unsupported("string", op)
	}
}

func (sc *StringCalculator) ResultType(core.AggregateOp) types.Type {
	return types.StringType
}

func (sc *StringCalculator) Reset() {
	sc.ext.reset()
}

func (sc *StringCalculator) Add(value types.Field) error {
	stringField, ok := value.(*types.StringField)
	if !ok {
		return fmt.Errorf("expected StringField, got %T", value)
	}
	return sc.ext.add(stringField)
}

func (sc *StringCalculator) Result() (types.Field, error) {
	return sc.ext.best, nil
}
