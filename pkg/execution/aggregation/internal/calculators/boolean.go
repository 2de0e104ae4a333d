package calculators

import (
	"fmt"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"
)

// BooleanCalculator handles boolean-specific aggregation logic
type BooleanCalculator struct {
	op  core.AggregateOp
	agg bool
}

func NewBooleanCalculator(op core.AggregateOp) *BooleanCalculator {
	bc := &BooleanCalculator{op: op}
	bc.Reset()
	return bc
}

func (bc *BooleanCalculator) ValidateOperation(op core.AggregateOp) error {
	switch op {
	case core.All, core.Any:
		return nil
	default:
		return unsupported("boolean", op)
	}
}

func (bc *BooleanCalculator) ResultType(core.AggregateOp) types.Type {
	return types.BoolType
}

// Reset starts from the identity: true for ALL, false for ANY.
func (bc *BooleanCalculator) Reset() {
	bc.agg = bc.op == core.All
}

func (bc *BooleanCalculator) Add(value types.Field) error {
	boolField, ok := value.(*types.BoolField)
	if !ok {
		return fmt.Errorf("expected BoolField, got %T", value)
	}

	if bc.op == core.All {
		bc.agg = bc.agg && boolField.Value
	} else {
		bc.agg = bc.agg || boolField.Value
	}
	return nil
}

func (bc *BooleanCalculator) Result() (types.Field, error) {
	return types.NewBoolField(bc.agg), nil
}
