package query

import (
	"fmt"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Predicate decides whether a row belongs to a restricted relation.
type Predicate func(row *tuple.Tuple) (bool, error)

// sourceIter encapsulates the source handling shared by unary operators.
type sourceIter struct {
	source cursor.Cursor
}

func newSourceIter(source cursor.Cursor) (sourceIter, error) {
	if source == nil {
		return sourceIter{}, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "source cursor cannot be nil")
	}
	return sourceIter{source: source}, nil
}

// fetchNext advances the source and returns a copy of its row, or nil at the
// end.
func (s sourceIter) fetchNext() (*tuple.Tuple, error) {
	ok, err := s.source.Next()
	if err != nil {
		return nil, fmt.Errorf("error advancing source: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return s.source.Select()
}

func (s sourceIter) fetchPrior() (*tuple.Tuple, error) {
	ok, err := s.source.Prior()
	if err != nil {
		return nil, fmt.Errorf("error moving source back: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return s.source.Select()
}

// rewind positions the source on the matching crack.
func (s sourceIter) rewind(toEnd bool) error {
	if toEnd {
		return s.source.Last()
	}
	return s.source.First()
}

// passThrough forwards searching, counting and bookmarks to the source,
// shaping the located source row into a result row.
type passThrough struct {
	base   *cursor.Base
	source cursor.Cursor
	shape  func(*tuple.Tuple) (*tuple.Tuple, error)
	// sourceKey translates a result key row into the source's names.
	sourceKey func(*tuple.Tuple) (*tuple.Tuple, error)
	// accept rejects located rows that do not belong to the result.
	accept Predicate
}

func (p *passThrough) require(c cursor.Capability, operation string) error {
	if !p.base.Supports(c) {
		return dberror.NewSystem(dberror.CodeCapabilityNotSupported, "capability not supported").
			WithDetail("%v", c).
			In(operation, p.base.Name())
	}
	return nil
}

func (p *passThrough) FindKey(key *tuple.Tuple) (bool, error) {
	if err := p.require(cursor.Searchable, "FindKey"); err != nil {
		return false, err
	}
	if p.sourceKey != nil {
		translated, err := p.sourceKey(key)
		if err != nil {
			return false, err
		}
		key = translated
	}
	found, err := p.source.(cursor.Searcher).FindKey(key)
	if err != nil || !found {
		return false, err
	}
	return p.positionOnSource()
}

func (p *passThrough) RowCount() (int, error) {
	if err := p.require(cursor.Countable, "RowCount"); err != nil {
		return 0, err
	}
	return p.source.(cursor.Counter).RowCount()
}

func (p *passThrough) GetBookmark() (cursor.Bookmark, error) {
	if err := p.require(cursor.Bookmarkable, "GetBookmark"); err != nil {
		return 0, err
	}
	return p.source.(cursor.Bookmarker).GetBookmark()
}

func (p *passThrough) GotoBookmark(b cursor.Bookmark) (bool, error) {
	if err := p.require(cursor.Bookmarkable, "GotoBookmark"); err != nil {
		return false, err
	}
	found, err := p.source.(cursor.Bookmarker).GotoBookmark(b)
	if err != nil || !found {
		return false, err
	}
	return p.positionOnSource()
}

func (p *passThrough) positionOnSource() (bool, error) {
	row, err := p.source.Select()
	if err != nil {
		return false, err
	}
	if p.accept != nil {
		ok, err := p.accept(row)
		if err != nil || !ok {
			return false, err
		}
	}
	shaped, err := p.shape(row)
	if err != nil {
		return false, err
	}
	p.base.Position(shaped)
	return true, nil
}

// hooks carries a single-source propagation policy through the
// Default/Change/Validate protocol.
type hooks struct {
	base   *cursor.Base
	source cursor.Cursor
	side   *propagate.Side
	// widen lifts a result row into a row of the source.
	widen func(*tuple.Tuple) (*tuple.Tuple, error)
	// narrow writes changed source values back into a result row.
	narrow func(src, row *tuple.Tuple) error
}

func (h hooks) covers(column string) bool {
	return column == "" || h.base.TableVar().HasColumn(column)
}

func (h hooks) Default(row *tuple.Tuple, column string) (bool, error) {
	if !h.side.Default || !h.covers(column) {
		return false, nil
	}
	src, err := h.widen(row)
	if err != nil {
		return false, err
	}
	changed, err := h.source.Default(src, column)
	if err != nil || !changed {
		return false, err
	}
	return true, h.narrow(src, row)
}

func (h hooks) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	if !h.side.Change || !h.covers(column) {
		return false, nil
	}
	srcOld, err := h.widen(oldRow)
	if err != nil {
		return false, err
	}
	srcNew, err := h.widen(newRow)
	if err != nil {
		return false, err
	}
	changed, err := h.source.Change(srcOld, srcNew, column)
	if err != nil || !changed {
		return false, err
	}
	return true, h.narrow(srcNew, newRow)
}

// Validate runs only on the descending pass.
func (h hooks) Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	if !h.side.Validate || !isDescending || !h.covers(column) {
		return false, nil
	}
	var srcOld *tuple.Tuple
	if oldRow != nil {
		widened, err := h.widen(oldRow)
		if err != nil {
			return false, err
		}
		srcOld = widened
	}
	srcNew, err := h.widen(newRow)
	if err != nil {
		return false, err
	}
	return h.source.Validate(srcOld, srcNew, column, isDescending)
}

// widenByName builds a source row holding the same-named values of row.
func widenByName(desc *tuple.TupleDescription) func(*tuple.Tuple) (*tuple.Tuple, error) {
	return func(row *tuple.Tuple) (*tuple.Tuple, error) {
		src := tuple.NewTuple(desc)
		if err := row.CopyTo(src); err != nil {
			return nil, err
		}
		return src, nil
	}
}

func narrowByName(src, row *tuple.Tuple) error {
	return src.CopyTo(row)
}

// sourceRowsMatching returns copies of the source rows whose same-named
// columns equal those of row. When the source clustering key survives in row
// the lookup goes through Locate.
func sourceRowsMatching(source cursor.Cursor, row *tuple.Tuple) ([]*tuple.Tuple, error) {
	key := source.TableVar().ClusteringKey()
	if key.IsSubsetOf(row.TupleDesc.Names()) {
		located, found, err := cursor.Locate(source, row)
		if err != nil || !found {
			return nil, err
		}
		if !cursor.MatchesByName(located, row) {
			return nil, nil
		}
		return []*tuple.Tuple{located}, nil
	}

	var matches []*tuple.Tuple
	err := cursor.Iterate(source, func(candidate *tuple.Tuple) (bool, error) {
		if cursor.MatchesByName(candidate, row) {
			matches = append(matches, candidate)
		}
		return true, nil
	})
	return matches, err
}

func rowNotFound(operation, component string, row *tuple.Tuple) error {
	return dberror.NewUser(dberror.CodeRowNotFound, "row not found in source").
		WithDetail("row (%v)", row).
		In(operation, component)
}

// orderedSource returns source unchanged when it already delivers rows in
// order, otherwise wraps it in a Sort.
func orderedSource(req cursor.Request, source cursor.Cursor, order schema.Order) (cursor.Cursor, error) {
	if len(order.Columns) == 0 || source.TableVar().HasOrder(order) {
		return source, nil
	}
	return NewSort(req, source, order)
}

// reposition moves an open cursor back before its first row after a
// mutation has moved its sources.
func reposition(c cursor.Cursor, open bool) error {
	if !open {
		return nil
	}
	return c.First()
}
