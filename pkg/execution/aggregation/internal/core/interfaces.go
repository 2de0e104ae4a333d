package core

import "relcore/pkg/types"

// Calculator computes one aggregate over the values of one group. The
// aggregate operator resets it at the start of every group and feeds it the
// non-nil values of the aggregated column.
type Calculator interface {
	// ValidateOperation checks if the given aggregate operation is supported
	// by this calculator implementation.
	ValidateOperation(op AggregateOp) error

	// ResultType returns the data type of the result that will be produced
	// by the specified aggregate operation.
	ResultType(op AggregateOp) types.Type

	// Reset discards the state of the previous group.
	Reset()

	// Add includes a value in the aggregate.
	//
	// Returns:
	//   error: Non-nil if the value type is incompatible
	Add(value types.Field) error

	// Result returns the aggregate of the values added since the last
	// Reset. An empty group yields the operation's empty value: zero for
	// COUNT, true for ALL, false for ANY and nil for everything else.
	Result() (types.Field, error)
}
