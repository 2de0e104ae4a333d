package query

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// RenamePair renames one source column.
type RenamePair struct {
	From string
	To   string
}

// Rename exposes the source rows under different column names. Rows are
// retyped views over the source rows, so values are never copied, and every
// capability of the source passes through.
type Rename struct {
	*cursor.Base
	passThrough
	hooks
	src     sourceIter
	reverse map[string]string // result name to source name

	// Propagation governs how mutations reach the source.
	Propagation propagate.Side
}

// NewRename renames the listed columns and keeps the rest.
func NewRename(req cursor.Request, source cursor.Cursor, pairs []RenamePair) (*Rename, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	srcTV := source.TableVar()
	mapping := schema.IdentityMapping(srcTV.ColumnNames())
	for _, pair := range pairs {
		if !srcTV.HasColumn(pair.From) {
			return nil, dberror.NewUser(dberror.CodeColumnNotFound, "renamed column not found").
				WithDetail("column %q", pair.From).
				In("NewRename", "Rename")
		}
		mapping[pair.From] = pair.To
	}
	return newRename(req, source, mapping)
}

// NewRenameAll qualifies every column of the source with prefix, joined by
// a dot.
func NewRenameAll(req cursor.Request, source cursor.Cursor, prefix string) (*Rename, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	mapping := make(schema.Mapping)
	for _, name := range source.TableVar().ColumnNames() {
		mapping[name] = prefix + "." + name
	}
	return newRename(req, source, mapping)
}

func newRename(req cursor.Request, source cursor.Cursor, mapping schema.Mapping) (*Rename, error) {
	srcTV := source.TableVar()
	reverse := make(map[string]string, len(mapping))
	for from, to := range mapping {
		if prior, dup := reverse[to]; dup {
			return nil, dberror.NewUser(dberror.CodeDuplicateRenameTarget, "rename target is not unique").
				WithDetail("columns %q and %q both become %q", prior, from, to).
				In("NewRename", "Rename")
		}
		reverse[to] = from
	}

	tv, err := schema.Derive("rename", schema.CopyColumns(srcTV.Columns, mapping))
	if err != nil {
		return nil, err
	}
	tv.Keys = schema.CopyKeys(srcTV.Keys, mapping)
	tv.IsDistinctRequired = srcTV.IsDistinctRequired
	tv.Orders = schema.CopyOrders(srcTV.Orders, mapping)
	tv.References = schema.CopyReferences(srcTV.References, mapping, req.ElaborationEnabled)
	tv.DetermineRemotable()

	caps := cursor.Derive(req, source.Capabilities(), cursor.PassThrough, true)
	r := &Rename{
		src:         sourceIter{source: source},
		reverse:     reverse,
		Propagation: propagate.DefaultSide(),
	}
	r.Base = cursor.NewBase("rename", tv, caps, r.readNext, r.src.rewind, source)
	if caps.Has(cursor.BackwardsNavigable) {
		r.SetPrior(r.readPrior)
	}
	r.passThrough = passThrough{base: r.Base, source: source, shape: r.shape, sourceKey: r.sourceKey}
	r.hooks = hooks{
		base:   r.Base,
		source: source,
		side:   &r.Propagation,
		widen:  r.toSource,
		narrow: func(_, _ *tuple.Tuple) error { return nil },
	}
	return r, nil
}

// shape views a source row under the result names.
func (r *Rename) shape(row *tuple.Tuple) (*tuple.Tuple, error) {
	return row.Retype(r.TableVar().RowDesc())
}

// toSource views a result row under the source names. Writes through the
// view land in the result row.
func (r *Rename) toSource(row *tuple.Tuple) (*tuple.Tuple, error) {
	return row.Retype(r.src.source.TableVar().RowDesc())
}

// sourceKey renames the columns of a key row, which may hold any subset of
// the result columns.
func (r *Rename) sourceKey(key *tuple.Tuple) (*tuple.Tuple, error) {
	columns := make([]tuple.Column, len(key.TupleDesc.Columns))
	for i, c := range key.TupleDesc.Columns {
		from, ok := r.reverse[c.Name]
		if !ok {
			return nil, dberror.NewUser(dberror.CodeColumnNotFound, "key column not found").
				WithDetail("column %q", c.Name).
				In("FindKey", "Rename")
		}
		columns[i] = tuple.Column{Name: from, Type: c.Type}
	}
	desc, err := tuple.NewTupleDescFromColumns(columns)
	if err != nil {
		return nil, err
	}
	return key.Retype(desc)
}

func (r *Rename) readNext() (*tuple.Tuple, error) {
	row, err := r.src.fetchNext()
	if err != nil || row == nil {
		return nil, err
	}
	return r.shape(row)
}

func (r *Rename) readPrior() (*tuple.Tuple, error) {
	row, err := r.src.fetchPrior()
	if err != nil || row == nil {
		return nil, err
	}
	return r.shape(row)
}

func (r *Rename) Insert(row *tuple.Tuple) error {
	if err := r.RequireUpdateable("Insert"); err != nil {
		return err
	}
	src, err := r.toSource(row)
	if err != nil {
		return err
	}
	return propagate.Insert(r.src.source, src, r.Propagation.Insert)
}

func (r *Rename) Update(oldRow, newRow *tuple.Tuple) error {
	if err := r.RequireUpdateable("Update"); err != nil {
		return err
	}
	if !r.Propagation.Update {
		return nil
	}
	srcOld, err := r.toSource(oldRow)
	if err != nil {
		return err
	}
	srcNew, err := r.toSource(newRow)
	if err != nil {
		return err
	}
	return r.src.source.Update(srcOld, srcNew)
}

func (r *Rename) Delete(row *tuple.Tuple) error {
	if err := r.RequireUpdateable("Delete"); err != nil {
		return err
	}
	if !r.Propagation.Delete {
		return nil
	}
	src, err := r.toSource(row)
	if err != nil {
		return err
	}
	return r.src.source.Delete(src)
}
