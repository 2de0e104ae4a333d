package setops

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Options configure how a binary set operator propagates to its sides.
type Options struct {
	Left  propagate.Side
	Right propagate.Side
	// EnforcePredicate checks a mutated row against the operator's defining
	// predicate before it is committed.
	EnforcePredicate bool
}

// DefaultOptions propagates everything to both sides and enforces the
// predicate.
func DefaultOptions() Options {
	return Options{
		Left:             propagate.DefaultSide(),
		Right:            propagate.DefaultSide(),
		EnforcePredicate: true,
	}
}

// side is one input of a set operator together with its policy.
type side struct {
	source cursor.Cursor
	policy propagate.Side
	name   string
}

// shape copies row by column name into the row type of the side.
func (s side) shape(row *tuple.Tuple) (*tuple.Tuple, error) {
	out := tuple.NewTuple(s.source.TableVar().RowDesc())
	if err := row.CopyTo(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s side) updateable() bool {
	return s.source.Supports(cursor.Updateable)
}

func (s side) contains(row *tuple.Tuple) (bool, error) {
	shaped, err := s.shape(row)
	if err != nil {
		return false, err
	}
	return cursor.Contains(s.source, shaped)
}

func (s side) insert(row *tuple.Tuple) error {
	shaped, err := s.shape(row)
	if err != nil {
		return err
	}
	return propagate.Insert(s.source, shaped, s.policy.Insert)
}

func (s side) delete(row *tuple.Tuple) error {
	shaped, err := s.shape(row)
	if err != nil {
		return err
	}
	return s.source.Delete(shaped)
}

// covers reports whether column belongs to this side.
func (s side) covers(column string) bool {
	return column == "" || s.source.TableVar().HasColumn(column)
}

func (s side) defaults(row *tuple.Tuple, column string) (bool, error) {
	if !s.policy.Default || !s.covers(column) {
		return false, nil
	}
	shaped, err := s.shape(row)
	if err != nil {
		return false, err
	}
	changed, err := s.source.Default(shaped, column)
	if err != nil || !changed {
		return false, err
	}
	return true, shaped.CopyTo(row)
}

func (s side) change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	if !s.policy.Change || !s.covers(column) {
		return false, nil
	}
	shapedOld, err := s.shape(oldRow)
	if err != nil {
		return false, err
	}
	shapedNew, err := s.shape(newRow)
	if err != nil {
		return false, err
	}
	changed, err := s.source.Change(shapedOld, shapedNew, column)
	if err != nil || !changed {
		return false, err
	}
	return true, shapedNew.CopyTo(newRow)
}

func (s side) validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	if !s.policy.Validate || !s.covers(column) {
		return false, nil
	}
	var shapedOld *tuple.Tuple
	if oldRow != nil {
		var err error
		if shapedOld, err = s.shape(oldRow); err != nil {
			return false, err
		}
	}
	shapedNew, err := s.shape(newRow)
	if err != nil {
		return false, err
	}
	return s.source.Validate(shapedOld, shapedNew, column, isDescending)
}

// validateSchemaCompatibility requires both sides to have the same columns
// by name and type. Column order may differ.
func validateSchemaCompatibility(operation string, l, r *schema.TableVar) error {
	if len(l.Columns) != len(r.Columns) {
		return dberror.NewUser(dberror.CodeSchemaMismatch, "set operands have different columns").
			WithDetail("left has %d columns, right has %d", len(l.Columns), len(r.Columns)).
			In(operation, "SetOp")
	}
	for _, lc := range l.Columns {
		rc, ok := r.Column(lc.Name)
		if !ok {
			return dberror.NewUser(dberror.CodeSchemaMismatch, "set operands have different columns").
				WithDetail("column %q missing on the right", lc.Name).
				In(operation, "SetOp")
		}
		if rc.Type != lc.Type {
			return dberror.NewUser(dberror.CodeSchemaMismatch, "set operand column types differ").
				WithDetail("column %q: left %v, right %v", lc.Name, lc.Type, rc.Type).
				In(operation, "SetOp")
		}
	}
	return nil
}

// fetch advances c and returns its row reshaped to desc, or nil at the end.
func fetch(c cursor.Cursor, desc *tuple.TupleDescription) (*tuple.Tuple, error) {
	ok, err := c.Next()
	if err != nil || !ok {
		return nil, err
	}
	row, err := c.Select()
	if err != nil {
		return nil, err
	}
	return conform(row, desc)
}

func fetchPrior(c cursor.Cursor, desc *tuple.TupleDescription) (*tuple.Tuple, error) {
	ok, err := c.Prior()
	if err != nil || !ok {
		return nil, err
	}
	row, err := c.Select()
	if err != nil {
		return nil, err
	}
	return conform(row, desc)
}

func conform(row *tuple.Tuple, desc *tuple.TupleDescription) (*tuple.Tuple, error) {
	if row.TupleDesc.Equals(desc) {
		return row, nil
	}
	out := tuple.NewTuple(desc)
	if err := row.CopyTo(out); err != nil {
		return nil, err
	}
	return out, nil
}

// nilable marks every column nilable when policy means a logical row may
// lack the side's values.
func nilable(columns []schema.Column, policy propagate.Side) {
	if !propagate.Nilable(policy) {
		return
	}
	for i := range columns {
		columns[i].IsNilable = true
	}
}

func rowNotFound(operation, component string, row *tuple.Tuple) error {
	return dberror.NewUser(dberror.CodeRowNotFound, "row not found in either source").
		WithDetail("row (%v)", row).
		In(operation, component)
}
