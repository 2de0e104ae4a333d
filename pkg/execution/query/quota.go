package query

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Quota delivers the first Count rows of its source in a given order. Ties
// at the boundary are not extended: exactly min(Count, rows) rows come out.
//
// When EnforcePredicate is set an insert or update is rejected if the new
// row would not be among the first Count rows of the source once it is
// there.
type Quota struct {
	*cursor.Base
	hooks
	src     sourceIter
	order   schema.Order
	count   int
	emitted int

	EnforcePredicate bool
	Propagation      propagate.Side
}

// NewQuota limits source to its first count rows by order. A source that
// does not already deliver that order is sorted.
func NewQuota(req cursor.Request, source cursor.Cursor, order schema.Order, count int) (*Quota, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "quota count cannot be negative").
			WithDetail("count %d", count).
			In("NewQuota", "Quota")
	}
	if _, err := source.TableVar().ResolveColumns(order.ColumnNames()); err != nil {
		return nil, err
	}
	source, err := orderedSource(req, source, order)
	if err != nil {
		return nil, err
	}

	srcTV := source.TableVar()
	mapping := schema.IdentityMapping(srcTV.ColumnNames())
	tv, err := schema.Derive("quota", schema.CopyColumns(srcTV.Columns, mapping))
	if err != nil {
		return nil, err
	}
	tv.Keys = schema.CopyKeys(srcTV.Keys, mapping)
	if count == 1 && orderIncludesAnyKey(order, srcTV.Keys) {
		tv.Keys = append([]schema.Key{{Columns: []string{}}}, tv.Keys...)
	}
	tv.Orders = []schema.Order{order}
	tv.References = schema.CopyReferences(srcTV.References, mapping, req.ElaborationEnabled)
	tv.DetermineRemotable()

	caps := cursor.Derive(req, source.Capabilities(), 0, true)
	q := &Quota{
		src:              sourceIter{source: source},
		order:            order,
		count:            count,
		EnforcePredicate: true,
		Propagation:      propagate.DefaultSide(),
	}
	q.Base = cursor.NewBase("quota", tv, caps, q.readNext, q.rewind, source)
	q.hooks = hooks{
		base:   q.Base,
		source: source,
		side:   &q.Propagation,
		widen:  func(row *tuple.Tuple) (*tuple.Tuple, error) { return row, nil },
		narrow: func(_, _ *tuple.Tuple) error { return nil },
	}
	return q, nil
}

func orderIncludesAnyKey(order schema.Order, keys []schema.Key) bool {
	for _, k := range keys {
		if order.IncludesKey(k) {
			return true
		}
	}
	return false
}

func (q *Quota) readNext() (*tuple.Tuple, error) {
	if q.emitted >= q.count {
		return nil, nil
	}
	row, err := q.src.fetchNext()
	if err != nil || row == nil {
		return nil, err
	}
	q.emitted++
	return row, nil
}

func (q *Quota) rewind(bool) error {
	q.emitted = 0
	return q.src.rewind(false)
}

// checkWithinQuota counts the source rows sorting before or tied with row
// in the quota order. Tied rows count because the source keeps their order
// and row may land after them. The row being replaced and rows equal to
// row are skipped.
func (q *Quota) checkWithinQuota(row, replaced *tuple.Tuple) error {
	preceding := 0
	err := cursor.Iterate(q.src.source, func(candidate *tuple.Tuple) (bool, error) {
		if cursor.MatchesByName(candidate, row) {
			return true, nil
		}
		if replaced != nil && cursor.MatchesByName(candidate, replaced) {
			return true, nil
		}
		cmp, err := q.order.Compare(candidate, row)
		if err != nil {
			return false, err
		}
		if cmp <= 0 {
			preceding++
		}
		return preceding < q.count, nil
	})
	if err != nil {
		return err
	}
	if preceding >= q.count {
		return dberror.NewUser(dberror.CodeRowViolatesQuotaPredicate, "row violates quota predicate").
			WithDetail("row (%v) falls outside the first %d rows by %v", row, q.count, q.order).
			In("Insert", "Quota")
	}
	return nil
}

// mutate runs a mutation and repositions the quota, whose source the
// predicate check and the mutation both move.
func (q *Quota) mutate(operation string, fn func() error) error {
	if err := q.RequireUpdateable(operation); err != nil {
		return err
	}
	err := fn()
	if rerr := reposition(q, q.IsOpen()); err == nil {
		err = rerr
	}
	return err
}

func (q *Quota) Insert(row *tuple.Tuple) error {
	return q.mutate("Insert", func() error {
		if q.EnforcePredicate {
			if err := q.checkWithinQuota(row, nil); err != nil {
				return err
			}
		}
		return propagate.Insert(q.src.source, row, q.Propagation.Insert)
	})
}

func (q *Quota) Update(oldRow, newRow *tuple.Tuple) error {
	return q.mutate("Update", func() error {
		if !q.Propagation.Update {
			return nil
		}
		if q.EnforcePredicate {
			if err := q.checkWithinQuota(newRow, oldRow); err != nil {
				return err
			}
		}
		return q.src.source.Update(oldRow, newRow)
	})
}

func (q *Quota) Delete(row *tuple.Tuple) error {
	return q.mutate("Delete", func() error {
		if !q.Propagation.Delete {
			return nil
		}
		return q.src.source.Delete(row)
	})
}
