package query

import (
	"slices"
	"strconv"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// Correspondence links a parent column to the child column that refers to
// it.
type Correspondence struct {
	Parent string
	Child  string
}

// ExplodeOptions configure a hierarchical expansion.
type ExplodeOptions struct {
	// Root selects the rows the hierarchy starts from.
	Root Predicate
	// Links are the parent/child column pairs. A row is a child of a parent
	// when every child column equals the parent column.
	Links []Correspondence
	// Order sorts siblings. The zero value keeps source order.
	Order schema.Order
	// LevelColumn names a computed depth column, root rows at level 1. Empty
	// means no level column.
	LevelColumn string
	// SequenceColumn names the computed visit-order column. Empty picks
	// "sequence", suffixed with a number if the source already uses it.
	SequenceColumn string
}

// Explode walks a self-referencing relation depth first, delivering each
// root followed by its descendants. Every row carries its visit sequence,
// which is the key of the result, and optionally its level.
//
// The source is materialized when the cursor opens. A row that is its own
// ancestor fails the walk with an explode cycle error.
type Explode struct {
	*cursor.Base
	hooks
	src      sourceIter
	opts     ExplodeOptions
	srcWidth int

	rows    []*tuple.Tuple
	stack   []explodeFrame
	path    []*tuple.Tuple // ancestors of the rows in the top frame
	pending *tuple.Tuple   // last delivered row, whose children are next
	seq     int64

	Propagation propagate.Side
}

type explodeFrame struct {
	rows []*tuple.Tuple
	pos  int
}

// NewExplode creates a hierarchical expansion of source.
func NewExplode(req cursor.Request, source cursor.Cursor, opts ExplodeOptions) (*Explode, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	if opts.Root == nil || len(opts.Links) == 0 {
		return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "explode needs a root predicate and at least one link").
			In("NewExplode", "Explode")
	}

	srcTV := source.TableVar()
	for _, link := range opts.Links {
		if _, err := srcTV.ResolveColumns([]string{link.Parent, link.Child}); err != nil {
			return nil, err
		}
	}
	if _, err := srcTV.ResolveColumns(opts.Order.ColumnNames()); err != nil {
		return nil, err
	}

	columns := schema.CopyColumns(srcTV.Columns, schema.IdentityMapping(srcTV.ColumnNames()))
	if opts.LevelColumn != "" {
		level := schema.NewColumn(opts.LevelColumn, types.IntType)
		level.IsComputed, level.ReadOnly = true, true
		columns = append(columns, level)
	}
	if opts.SequenceColumn == "" {
		opts.SequenceColumn = freeName(srcTV, opts.LevelColumn, "sequence")
	}
	sequence := schema.NewColumn(opts.SequenceColumn, types.IntType)
	sequence.IsComputed, sequence.ReadOnly = true, true
	columns = append(columns, sequence)

	tv, err := schema.Derive("explode", columns)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSchemaMismatch, "NewExplode", "Explode")
	}
	tv.Keys = []schema.Key{{Columns: []string{opts.SequenceColumn}}}
	tv.Orders = []schema.Order{schema.Ascending(opts.SequenceColumn)}
	tv.References = schema.CopyReferences(srcTV.References, schema.IdentityMapping(srcTV.ColumnNames()), req.ElaborationEnabled)
	tv.DetermineRemotable()

	caps := cursor.Derive(req, source.Capabilities(), 0, true)
	e := &Explode{
		src:         sourceIter{source: source},
		opts:        opts,
		srcWidth:    len(srcTV.Columns),
		Propagation: propagate.DefaultSide(),
	}
	e.Base = cursor.NewBase("explode", tv, caps, e.readNext, e.rewind, source)
	e.hooks = hooks{
		base:   e.Base,
		source: source,
		side:   &e.Propagation,
		widen:  e.strip,
		narrow: func(_, _ *tuple.Tuple) error { return nil },
	}
	return e, nil
}

// freeName returns base, or base with the smallest numeric suffix that
// collides with no column.
func freeName(tv *schema.TableVar, taken, base string) string {
	name := base
	for i := 1; tv.HasColumn(name) || name == taken; i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

func (e *Explode) Open() error {
	return e.OpenWith(e.load)
}

// Reset re-reads the source.
func (e *Explode) Reset() error {
	if err := e.load(); err != nil {
		return err
	}
	return e.First()
}

func (e *Explode) load() error {
	rows, err := cursor.Collect(e.src.source)
	if err != nil {
		return err
	}
	e.rows = rows
	return nil
}

func (e *Explode) rewind(bool) error {
	e.stack, e.path, e.pending, e.seq = nil, nil, nil, 0

	var roots []*tuple.Tuple
	for _, row := range e.rows {
		ok, err := e.opts.Root(row)
		if err != nil {
			return err
		}
		if ok {
			roots = append(roots, row)
		}
	}
	if err := e.sortSiblings(roots); err != nil {
		return err
	}
	e.stack = append(e.stack, explodeFrame{rows: roots})
	return nil
}

func (e *Explode) sortSiblings(rows []*tuple.Tuple) error {
	if len(e.opts.Order.Columns) == 0 {
		return nil
	}
	var sortErr error
	slices.SortStableFunc(rows, func(a, b *tuple.Tuple) int {
		cmp, err := e.opts.Order.Compare(a, b)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp
	})
	return sortErr
}

func (e *Explode) isChild(parent, candidate *tuple.Tuple) bool {
	for _, link := range e.opts.Links {
		p, _ := parent.FieldByName(link.Parent)
		c, _ := candidate.FieldByName(link.Child)
		if p == nil || !types.FieldsEqual(p, c) {
			return false
		}
	}
	return true
}

func (e *Explode) descend(parent *tuple.Tuple) error {
	var children []*tuple.Tuple
	for _, row := range e.rows {
		if !e.isChild(parent, row) {
			continue
		}
		if row.Equals(parent) || slices.ContainsFunc(e.path, row.Equals) {
			return dberror.NewUser(dberror.CodeExplodeCycle, "hierarchy contains a cycle").
				WithDetail("row (%v) is its own ancestor", row).
				In("Next", "Explode")
		}
		children = append(children, row)
	}
	if err := e.sortSiblings(children); err != nil {
		return err
	}
	e.path = append(e.path, parent)
	e.stack = append(e.stack, explodeFrame{rows: children})
	return nil
}

func (e *Explode) readNext() (*tuple.Tuple, error) {
	if e.pending != nil {
		parent := e.pending
		e.pending = nil
		if err := e.descend(parent); err != nil {
			return nil, err
		}
	}

	for len(e.stack) > 0 {
		top := &e.stack[len(e.stack)-1]
		if top.pos >= len(top.rows) {
			e.stack = e.stack[:len(e.stack)-1]
			if len(e.path) > 0 {
				e.path = e.path[:len(e.path)-1]
			}
			continue
		}
		row := top.rows[top.pos]
		top.pos++
		e.seq++
		e.pending = row
		return e.build(row, int64(len(e.stack)))
	}
	return nil, nil
}

func (e *Explode) build(row *tuple.Tuple, level int64) (*tuple.Tuple, error) {
	out := tuple.NewTuple(e.TableVar().RowDesc())
	for i := range e.srcWidth {
		if err := out.SetField(i, row.Field(i)); err != nil {
			return nil, err
		}
	}
	if e.opts.LevelColumn != "" {
		if err := out.SetFieldByName(e.opts.LevelColumn, types.NewIntField(level)); err != nil {
			return nil, err
		}
	}
	if err := out.SetFieldByName(e.opts.SequenceColumn, types.NewIntField(e.seq)); err != nil {
		return nil, err
	}
	return out, nil
}

// strip views a result row without its computed columns.
func (e *Explode) strip(row *tuple.Tuple) (*tuple.Tuple, error) {
	if row.TupleDesc.NumFields() == e.srcWidth {
		return row, nil
	}
	indexes := make([]int, e.srcWidth)
	for i := range indexes {
		indexes[i] = i
	}
	return row.Restrict(e.src.source.TableVar().RowDesc(), indexes)
}

func (e *Explode) mutate(operation string, fn func() error) error {
	if err := e.RequireUpdateable(operation); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if !e.IsOpen() {
		return nil
	}
	return e.Reset()
}

func (e *Explode) Insert(row *tuple.Tuple) error {
	return e.mutate("Insert", func() error {
		src, err := e.strip(row)
		if err != nil {
			return err
		}
		return propagate.Insert(e.src.source, src, e.Propagation.Insert)
	})
}

func (e *Explode) Update(oldRow, newRow *tuple.Tuple) error {
	return e.mutate("Update", func() error {
		if !e.Propagation.Update {
			return nil
		}
		srcOld, err := e.strip(oldRow)
		if err != nil {
			return err
		}
		srcNew, err := e.strip(newRow)
		if err != nil {
			return err
		}
		return e.src.source.Update(srcOld, srcNew)
	})
}

func (e *Explode) Delete(row *tuple.Tuple) error {
	return e.mutate("Delete", func() error {
		if !e.Propagation.Delete {
			return nil
		}
		src, err := e.strip(row)
		if err != nil {
			return err
		}
		return e.src.source.Delete(src)
	})
}
