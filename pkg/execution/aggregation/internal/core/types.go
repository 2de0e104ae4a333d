package core

import (
	"fmt"
	"strings"
)

// AggregateOp represents the type of aggregation operation to perform
type AggregateOp int

const (
	Count AggregateOp = iota
	Sum
	Min
	Max
	Avg
	All
	Any
)

// String returns a string representation of the aggregation operation
func (op AggregateOp) String() string {
	switch op {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	case All:
		return "ALL"
	case Any:
		return "ANY"
	default:
		return "UNKNOWN"
	}
}

// ParseAggregateOp converts an aggregate operation string to AggregateOp enum.
func ParseAggregateOp(opStr string) (AggregateOp, error) {
	switch strings.ToUpper(strings.TrimSpace(opStr)) {
	case "COUNT":
		return Count, nil
	case "SUM":
		return Sum, nil
	case "MIN":
		return Min, nil
	case "MAX":
		return Max, nil
	case "AVG":
		return Avg, nil
	case "ALL":
		return All, nil
	case "ANY":
		return Any, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate operation: %s", opStr)
	}
}
