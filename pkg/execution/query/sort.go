package query

import (
	"slices"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Sort delivers the rows of its source in a requested order.
//
// Implementation:
//   - Materializes all rows from the source when opened (blocking)
//   - Sorts them stably with the order's column comparators
//   - Serves them as a static cursor; mutations go to the source and the
//     buffer is rebuilt
//
// Performance Characteristics:
//   - Time: O(n log n) per open
//   - Space: O(n) to hold the rows
type Sort struct {
	*cursor.Materialized
	order schema.Order
}

// NewSort creates a Sort over source. Every order column must exist in the
// source.
func NewSort(req cursor.Request, source cursor.Cursor, order schema.Order) (*Sort, error) {
	if source == nil {
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "source cursor cannot be nil").In("NewSort", "Sort")
	}
	src := source.TableVar()
	if _, err := src.ResolveColumns(order.ColumnNames()); err != nil {
		return nil, err
	}

	tv := src.Clone()
	tv.Orders = append([]schema.Order{order}, tv.Orders...)
	tv.References = schema.CopyReferences(src.References, schema.IdentityMapping(src.ColumnNames()), req.ElaborationEnabled)

	s := &Sort{order: order}
	s.Materialized = cursor.NewMaterialized("sort", source, tv, s.sortRows)
	return s, nil
}

// Order returns the order the rows are delivered in.
func (s *Sort) Order() schema.Order {
	return s.order
}

func (s *Sort) sortRows(rows []*tuple.Tuple) error {
	var sortErr error
	slices.SortStableFunc(rows, func(a, b *tuple.Tuple) int {
		if sortErr != nil {
			return 0
		}
		cmp, err := s.order.Compare(a, b)
		if err != nil {
			sortErr = err
			return 0
		}
		return cmp
	})
	return sortErr
}
