package query

import (
	"slices"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Project keeps a subset of the source columns.
//
// When a source key survives the projection rows stream straight through
// and every pass-through capability of the source is kept. Otherwise the
// result gets an all-columns key and duplicates are dropped: the source is
// read in an order over the projected columns (sorted first if it has no
// such order) so equal rows arrive adjacent and only the first of each run
// is delivered.
type Project struct {
	*cursor.Base
	passThrough
	hooks
	src      sourceIter
	indexes  []int // source positions of the result columns
	distinct bool
	last     *tuple.Tuple

	// Propagation governs how mutations reach the source.
	Propagation propagate.Side
}

// NewProject creates a projection of source onto the named columns.
func NewProject(req cursor.Request, source cursor.Cursor, columns []string) (*Project, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	srcTV := source.TableVar()
	if _, err := srcTV.ResolveColumns(columns); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeColumnNotFound, "NewProject", "Project")
	}

	mapping := schema.IdentityMapping(columns)
	keys := schema.CopyKeys(srcTV.Keys, mapping)
	distinct := len(keys) == 0

	if distinct && !hasOrderOver(srcTV, columns) {
		sorted, err := NewSort(req, source, schema.Ascending(columns...))
		if err != nil {
			return nil, err
		}
		source = sorted
		srcTV = sorted.TableVar()
	}

	// Columns keep the requested order, which need not be the source order.
	cols := make([]schema.Column, len(columns))
	for i, name := range columns {
		c, _ := srcTV.Column(name)
		cols[i] = *c
	}
	tv, err := schema.Derive("project", cols)
	if err != nil {
		return nil, err
	}
	tv.Keys = keys
	tv.EnsureKey()
	tv.Orders = schema.CopyOrders(srcTV.Orders, mapping)
	tv.References = schema.CopyReferences(srcTV.References, mapping, req.ElaborationEnabled)
	tv.DetermineRemotable()

	preserved := cursor.PassThrough
	if distinct {
		preserved = 0
	}
	caps := cursor.Derive(req, source.Capabilities(), preserved, true)

	indexes, _ := srcTV.ResolveColumns(columns)
	p := &Project{
		src:         sourceIter{source: source},
		indexes:     indexes,
		distinct:    distinct,
		Propagation: propagate.DefaultSide(),
	}
	p.Base = cursor.NewBase("project", tv, caps, p.readNext, p.rewind, source)
	if caps.Has(cursor.BackwardsNavigable) {
		p.SetPrior(p.readPrior)
	}
	p.passThrough = passThrough{base: p.Base, source: source, shape: p.shape}
	p.hooks = hooks{
		base:   p.Base,
		source: source,
		side:   &p.Propagation,
		widen:  widenByName(srcTV.RowDesc()),
		narrow: narrowByName,
	}
	return p, nil
}

// NewRemove creates a projection of source onto every column not named.
func NewRemove(req cursor.Request, source cursor.Cursor, columns []string) (*Project, error) {
	if _, err := newSourceIter(source); err != nil {
		return nil, err
	}
	srcTV := source.TableVar()
	if _, err := srcTV.ResolveColumns(columns); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeColumnNotFound, "NewRemove", "Project")
	}
	var kept []string
	for _, name := range srcTV.ColumnNames() {
		if !slices.Contains(columns, name) {
			kept = append(kept, name)
		}
	}
	return NewProject(req, source, kept)
}

// hasOrderOver reports whether tv has an order whose leading columns are
// exactly the given column set.
func hasOrderOver(tv *schema.TableVar, columns []string) bool {
	for _, o := range tv.Orders {
		names := o.ColumnNames()
		if len(names) < len(columns) {
			continue
		}
		lead := names[:len(columns)]
		covered := true
		for _, c := range columns {
			if !slices.Contains(lead, c) {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

// IsDistinct reports whether the projection removes duplicates.
func (p *Project) IsDistinct() bool {
	return p.distinct
}

func (p *Project) shape(row *tuple.Tuple) (*tuple.Tuple, error) {
	return row.Restrict(p.TableVar().RowDesc(), p.indexes)
}

func (p *Project) readNext() (*tuple.Tuple, error) {
	for {
		row, err := p.src.fetchNext()
		if err != nil || row == nil {
			return nil, err
		}
		projected, err := p.shape(row)
		if err != nil {
			return nil, err
		}
		if p.distinct {
			if p.last != nil && projected.Equals(p.last) {
				continue
			}
			p.last = projected
		}
		return projected, nil
	}
}

func (p *Project) readPrior() (*tuple.Tuple, error) {
	row, err := p.src.fetchPrior()
	if err != nil || row == nil {
		return nil, err
	}
	return p.shape(row)
}

func (p *Project) rewind(toEnd bool) error {
	p.last = nil
	return p.src.rewind(toEnd)
}

// Insert fills the removed columns through the source's Default hook and
// inserts the widened row.
func (p *Project) Insert(row *tuple.Tuple) error {
	if err := p.RequireUpdateable("Insert"); err != nil {
		return err
	}
	src, err := p.widen(row)
	if err != nil {
		return err
	}
	if _, err := p.src.source.Default(src, ""); err != nil {
		return err
	}
	return propagate.Insert(p.src.source, src, p.Propagation.Insert)
}

// Update applies newRow to every source row that projects onto oldRow.
func (p *Project) Update(oldRow, newRow *tuple.Tuple) error {
	if err := p.RequireUpdateable("Update"); err != nil {
		return err
	}
	if !p.Propagation.Update {
		return nil
	}
	matches, err := sourceRowsMatching(p.src.source, oldRow)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return rowNotFound("Update", "Project", oldRow)
	}
	for _, m := range matches {
		updated := m.Clone()
		if err := newRow.CopyTo(updated); err != nil {
			return err
		}
		if err := p.src.source.Update(m, updated); err != nil {
			return err
		}
	}
	return reposition(p, p.IsOpen())
}

// Delete removes every source row that projects onto row.
func (p *Project) Delete(row *tuple.Tuple) error {
	if err := p.RequireUpdateable("Delete"); err != nil {
		return err
	}
	if !p.Propagation.Delete {
		return nil
	}
	matches, err := sourceRowsMatching(p.src.source, row)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return rowNotFound("Delete", "Project", row)
	}
	for _, m := range matches {
		if err := p.src.source.Delete(m); err != nil {
			return err
		}
	}
	return reposition(p, p.IsOpen())
}
