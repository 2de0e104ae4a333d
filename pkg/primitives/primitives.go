package primitives

import "math"

// HashCode represents a hash value computed over a field or a row.
// It is used for fast membership checks in hash-based tuple sets.
type HashCode uint64

// ColumnID identifies a column by position within a row description.
type ColumnID uint32

// RowID identifies a row by position within a materialized buffer.
type RowID uint64

// Sequence is a 1-based emission counter used by explode and list conversion.
type Sequence int64

// Sentinel values for invalid/unset identifiers
const (
	InvalidColumnID ColumnID = math.MaxUint32
	InvalidRowID    RowID    = math.MaxUint64
)
