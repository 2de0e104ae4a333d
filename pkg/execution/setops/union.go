package setops

import (
	"errors"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Union delivers the rows of the left side, then the rows of the right side
// not already delivered. Every column together forms the key.
type Union struct {
	*cursor.Base
	left, right side
	opts        Options
	seen        *TupleSet
	leftDone    bool
}

// NewUnion creates the union of two relations with the same columns.
func NewUnion(req cursor.Request, left, right cursor.Cursor, opts Options) (*Union, error) {
	if err := checkOperands("NewUnion", left, right); err != nil {
		return nil, err
	}

	ltv := left.TableVar()
	names := ltv.ColumnNames()
	columns := schema.CopyColumns(ltv.Columns, schema.IdentityMapping(names))
	nilable(columns, opts.Left)
	nilable(columns, opts.Right)

	tv, err := schema.Derive("union", columns)
	if err != nil {
		return nil, err
	}
	tv.Keys = []schema.Key{{Columns: names}}
	tv.References = schema.CopyReferences(ltv.References, schema.IdentityMapping(names), req.ElaborationEnabled)
	tv.DetermineRemotable()

	// Either side may take updates, but both must elaborate.
	lcaps, rcaps := left.Capabilities(), right.Capabilities()
	sources := (lcaps|rcaps)&^cursor.Elaborable | lcaps&rcaps&cursor.Elaborable
	caps := cursor.Derive(req, sources, 0, true)

	u := &Union{
		left:  side{source: left, policy: opts.Left, name: "left"},
		right: side{source: right, policy: opts.Right, name: "right"},
		opts:  opts,
		seen:  NewTupleSet(),
	}
	u.Base = cursor.NewBase("union", tv, caps, u.readNext, u.rewind, left, right)
	return u, nil
}

func checkOperands(operation string, left, right cursor.Cursor) error {
	if left == nil || right == nil {
		return dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "set operation children cannot be nil").In(operation, "SetOp")
	}
	return validateSchemaCompatibility(operation, left.TableVar(), right.TableVar())
}

func (u *Union) rewind(bool) error {
	u.seen.Clear()
	u.leftDone = false
	if err := u.left.source.First(); err != nil {
		return err
	}
	return u.right.source.First()
}

func (u *Union) readNext() (*tuple.Tuple, error) {
	desc := u.TableVar().RowDesc()
	for !u.leftDone {
		row, err := fetch(u.left.source, desc)
		if err != nil {
			return nil, err
		}
		if row == nil {
			u.leftDone = true
			break
		}
		if !u.seen.Add(row) {
			continue
		}
		return row, nil
	}

	for {
		row, err := fetch(u.right.source, desc)
		if err != nil || row == nil {
			return nil, err
		}
		if !u.seen.Add(row) {
			continue
		}
		return row, nil
	}
}

// targets returns the sides an insert may reach. During an update, sides
// whose policy disables updates are left out.
func (u *Union) targets(updating bool) []side {
	var out []side
	for _, s := range []side{u.left, u.right} {
		if updating && !s.policy.Update {
			continue
		}
		if s.policy.Insert != propagate.False && s.updateable() {
			out = append(out, s)
		}
	}
	return out
}

// insert places row on the sides under the union insert rules. With the
// predicate enforced and both sides eligible, a user-severity failure on
// the left sends the row to the right alone, and a user-severity failure on
// the right after a successful left insert is tolerated.
func (u *Union) insert(row *tuple.Tuple, updating bool) error {
	targets := u.targets(updating)
	if !u.opts.EnforcePredicate || len(targets) < 2 {
		for _, s := range targets {
			if err := s.insert(row); err != nil {
				return err
			}
		}
		return nil
	}

	left, right := targets[0], targets[1]
	res := propagate.Attempt(func() error { return left.insert(row) })
	switch res.Kind {
	case propagate.Fault:
		return res.Err
	case propagate.PredicateViolation:
		u.Logger().Debug("left rejected row, inserting right", "reason", res.Err)
		return right.insert(row)
	}

	res = propagate.Attempt(func() error { return right.insert(row) })
	if res.Kind == propagate.Fault {
		return res.Err
	}
	return nil
}

// remove deletes row from every side holding it and reports whether any
// side held it. During an update, sides whose policy disables updates keep
// the row.
func (u *Union) remove(row *tuple.Tuple, updating bool) (bool, error) {
	removed := false
	for _, s := range []side{u.left, u.right} {
		held, err := s.contains(row)
		if err != nil {
			return false, err
		}
		if !held {
			continue
		}
		removed = true
		if !s.policy.Delete || !s.updateable() || updating && !s.policy.Update {
			continue
		}
		if err := s.delete(row); err != nil {
			return true, err
		}
	}
	return removed, nil
}

func (u *Union) mutate(operation string, fn func() error) error {
	if err := u.RequireUpdateable(operation); err != nil {
		return err
	}
	err := fn()
	if !u.IsOpen() {
		return err
	}
	return errors.Join(err, u.First())
}

func (u *Union) Insert(row *tuple.Tuple) error {
	return u.mutate("Insert", func() error {
		return u.insert(row, false)
	})
}

// Update deletes oldRow from the sides holding it and inserts newRow under
// the insert rules, so a row can move between sides. A side whose policy
// disables updates is neither deleted from nor inserted into.
func (u *Union) Update(oldRow, newRow *tuple.Tuple) error {
	return u.mutate("Update", func() error {
		removed, err := u.remove(oldRow, true)
		if err != nil {
			return err
		}
		if !removed {
			return rowNotFound("Update", "Union", oldRow)
		}
		return u.insert(newRow, true)
	})
}

func (u *Union) Delete(row *tuple.Tuple) error {
	return u.mutate("Delete", func() error {
		removed, err := u.remove(row, false)
		if err != nil {
			return err
		}
		if !removed {
			return rowNotFound("Delete", "Union", row)
		}
		return nil
	})
}

// Default asks both sides and reports whether either changed the row.
func (u *Union) Default(row *tuple.Tuple, column string) (bool, error) {
	l, err := u.left.defaults(row, column)
	if err != nil {
		return false, err
	}
	r, err := u.right.defaults(row, column)
	return l || r, err
}

func (u *Union) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	l, err := u.left.change(oldRow, newRow, column)
	if err != nil {
		return false, err
	}
	r, err := u.right.change(oldRow, newRow, column)
	return l || r, err
}

func (u *Union) Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	l, err := u.left.validate(oldRow, newRow, column, isDescending)
	if err != nil {
		return false, err
	}
	r, err := u.right.validate(oldRow, newRow, column, isDescending)
	return l || r, err
}
