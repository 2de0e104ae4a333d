package query

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Restrict delivers the source rows satisfying a predicate.
//
// Mutations pass straight through; a row inserted through a restriction is
// not checked against the predicate. Counting and bookmarks do not survive
// the filter, searching does.
type Restrict struct {
	*cursor.Base
	passThrough
	src       sourceIter
	predicate Predicate
}

// NewRestrict creates a restriction of source by predicate.
func NewRestrict(req cursor.Request, source cursor.Cursor, predicate Predicate) (*Restrict, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	if predicate == nil {
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "predicate cannot be nil").In("NewRestrict", "Restrict")
	}

	srcTV := source.TableVar()
	mapping := schema.IdentityMapping(srcTV.ColumnNames())
	tv := srcTV.Clone()
	tv.Name = "restrict"
	tv.Keys = schema.CopyKeys(srcTV.Keys, mapping)
	tv.Orders = schema.CopyOrders(srcTV.Orders, mapping)
	tv.References = schema.CopyReferences(srcTV.References, mapping, req.ElaborationEnabled)

	preserved := cursor.PassThrough &^ (cursor.Countable | cursor.Bookmarkable)
	caps := cursor.Derive(req, source.Capabilities(), preserved, true)

	r := &Restrict{src: sourceIter{source: source}, predicate: predicate}
	r.Base = cursor.NewBase("restrict", tv, caps, r.readNext, r.src.rewind, source)
	if caps.Has(cursor.BackwardsNavigable) {
		r.SetPrior(r.readPrior)
	}
	r.passThrough = passThrough{
		base:   r.Base,
		source: source,
		shape:  func(row *tuple.Tuple) (*tuple.Tuple, error) { return row, nil },
		accept: predicate,
	}
	return r, nil
}

// NewRowRestrict restricts source to the rows whose columns equal the
// same-named columns of row.
func NewRowRestrict(req cursor.Request, source cursor.Cursor, row *tuple.Tuple) (*Restrict, error) {
	if row == nil {
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "restriction row cannot be nil").In("NewRowRestrict", "Restrict")
	}
	if source != nil {
		if _, err := source.TableVar().ResolveColumns(row.TupleDesc.Names()); err != nil {
			return nil, err
		}
	}
	pattern := row.Clone()
	return NewRestrict(req, source, func(candidate *tuple.Tuple) (bool, error) {
		return cursor.MatchesByName(candidate, pattern), nil
	})
}

func (r *Restrict) readNext() (*tuple.Tuple, error) {
	for {
		row, err := r.src.fetchNext()
		if err != nil || row == nil {
			return nil, err
		}
		ok, err := r.predicate(row)
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}
	}
}

func (r *Restrict) readPrior() (*tuple.Tuple, error) {
	for {
		row, err := r.src.fetchPrior()
		if err != nil || row == nil {
			return nil, err
		}
		ok, err := r.predicate(row)
		if err != nil {
			return nil, err
		}
		if ok {
			return row, nil
		}
	}
}

func (r *Restrict) Insert(row *tuple.Tuple) error {
	if err := r.RequireUpdateable("Insert"); err != nil {
		return err
	}
	return r.src.source.Insert(row)
}

func (r *Restrict) Update(oldRow, newRow *tuple.Tuple) error {
	if err := r.RequireUpdateable("Update"); err != nil {
		return err
	}
	return r.src.source.Update(oldRow, newRow)
}

func (r *Restrict) Delete(row *tuple.Tuple) error {
	if err := r.RequireUpdateable("Delete"); err != nil {
		return err
	}
	return r.src.source.Delete(row)
}

func (r *Restrict) Default(row *tuple.Tuple, column string) (bool, error) {
	return r.src.source.Default(row, column)
}

func (r *Restrict) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	return r.src.source.Change(oldRow, newRow, column)
}

func (r *Restrict) Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	return r.src.source.Validate(oldRow, newRow, column, isDescending)
}
