package setops

import (
	"errors"
	"fmt"
	"strings"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/tuple"
)

// DifferenceAlgorithm selects how a left row is checked against the right
// side.
type DifferenceAlgorithm int

const (
	// Auto picks Searched when the right side is searchable, Hashed
	// otherwise.
	Auto DifferenceAlgorithm = iota
	// Searched looks each left row up in the right side by key.
	Searched
	// Scanned rescans the right side for every left row.
	Scanned
	// Hashed loads the right side into a tuple set once per pass.
	Hashed
)

func (a DifferenceAlgorithm) String() string {
	switch a {
	case Searched:
		return "Searched"
	case Scanned:
		return "Scanned"
	case Hashed:
		return "Hashed"
	default:
		return "Auto"
	}
}

// ParseDifferenceAlgorithm parses an algorithm name, case-insensitively.
func ParseDifferenceAlgorithm(s string) (DifferenceAlgorithm, error) {
	for _, a := range []DifferenceAlgorithm{Auto, Searched, Scanned, Hashed} {
		if strings.EqualFold(strings.TrimSpace(s), a.String()) {
			return a, nil
		}
	}
	return Auto, fmt.Errorf("unknown difference algorithm %q", s)
}

// Difference delivers the left rows that have no equal row on the right.
// The result carries the left side's metadata; only the left side receives
// mutations.
type Difference struct {
	*cursor.Base
	left, right side
	opts        Options
	algorithm   DifferenceAlgorithm
	rightRows   *TupleSet // Hashed only; nil until loaded
}

// NewDifference creates left minus right. algorithm Auto resolves against
// the right side's capabilities; asking for Searched over a right side that
// cannot search is an error.
func NewDifference(req cursor.Request, left, right cursor.Cursor, opts Options, algorithm DifferenceAlgorithm) (*Difference, error) {
	if err := checkOperands("NewDifference", left, right); err != nil {
		return nil, err
	}

	searchable := right.Supports(cursor.Searchable)
	if _, ok := right.(cursor.Searcher); !ok {
		searchable = false
	}
	switch algorithm {
	case Auto:
		algorithm = Hashed
		if searchable {
			algorithm = Searched
		}
	case Searched:
		if !searchable {
			return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "searched difference needs a searchable right side").
				In("NewDifference", "Difference")
		}
	}

	tv := left.TableVar().Clone()
	tv.Name = "difference"
	for i := range tv.Columns {
		if propagate.Nilable(opts.Left) {
			tv.Columns[i].IsNilable = true
		}
	}
	if !req.ElaborationEnabled {
		tv.References = nil
	}

	preserved := cursor.BackwardsNavigable | cursor.Searchable
	caps := cursor.Derive(req, left.Capabilities(), preserved, true)

	d := &Difference{
		left:      side{source: left, policy: opts.Left, name: "left"},
		right:     side{source: right, policy: opts.Right, name: "right"},
		opts:      opts,
		algorithm: algorithm,
	}
	d.Base = cursor.NewBase("difference", tv, caps, d.readNext, d.rewind, left, right)
	if caps.Has(cursor.BackwardsNavigable) {
		d.SetPrior(d.readPrior)
	}
	return d, nil
}

// Algorithm returns the resolved algorithm.
func (d *Difference) Algorithm() DifferenceAlgorithm {
	return d.algorithm
}

func (d *Difference) rewind(toEnd bool) error {
	d.rightRows = nil
	if toEnd {
		return d.left.source.Last()
	}
	return d.left.source.First()
}

// excluded reports whether the right side holds a row equal to row.
func (d *Difference) excluded(row *tuple.Tuple) (bool, error) {
	switch d.algorithm {
	case Searched:
		return d.right.contains(row)

	case Scanned:
		found := false
		err := cursor.Iterate(d.right.source, func(candidate *tuple.Tuple) (bool, error) {
			found = cursor.MatchesByName(candidate, row)
			return !found, nil
		})
		return found, err

	default:
		if d.rightRows == nil {
			if err := d.loadRight(); err != nil {
				return false, err
			}
		}
		return d.rightRows.Contains(row), nil
	}
}

func (d *Difference) loadRight() error {
	set := NewTupleSet()
	desc := d.TableVar().RowDesc()
	err := cursor.Iterate(d.right.source, func(row *tuple.Tuple) (bool, error) {
		shaped, err := conform(row, desc)
		if err != nil {
			return false, err
		}
		set.Add(shaped)
		return true, nil
	})
	if err != nil {
		return err
	}
	d.rightRows = set
	d.Logger().Debug("right side loaded", "rows", set.Size())
	return nil
}

func (d *Difference) skipExcluded(read func() (*tuple.Tuple, error)) (*tuple.Tuple, error) {
	for {
		row, err := read()
		if err != nil || row == nil {
			return nil, err
		}
		out, err := d.excluded(row)
		if err != nil {
			return nil, err
		}
		if !out {
			return row, nil
		}
	}
}

func (d *Difference) readNext() (*tuple.Tuple, error) {
	desc := d.TableVar().RowDesc()
	return d.skipExcluded(func() (*tuple.Tuple, error) { return fetch(d.left.source, desc) })
}

func (d *Difference) readPrior() (*tuple.Tuple, error) {
	desc := d.TableVar().RowDesc()
	return d.skipExcluded(func() (*tuple.Tuple, error) { return fetchPrior(d.left.source, desc) })
}

// FindKey positions on the left row with the given key when the right side
// does not hold it.
func (d *Difference) FindKey(key *tuple.Tuple) (bool, error) {
	if !d.Supports(cursor.Searchable) {
		return false, dberror.NewSystem(dberror.CodeCapabilityNotSupported, "capability not supported").
			WithDetail("%v", cursor.Searchable).
			In("FindKey", "Difference")
	}
	found, err := d.left.source.(cursor.Searcher).FindKey(key)
	if err != nil || !found {
		return false, err
	}
	row, err := d.left.source.Select()
	if err != nil {
		return false, err
	}
	row, err = conform(row, d.TableVar().RowDesc())
	if err != nil {
		return false, err
	}
	out, err := d.excluded(row)
	if err != nil || out {
		return false, err
	}
	d.Position(row)
	return true, nil
}

// checkPredicate verifies row could be added to the right side without
// conflict, by inserting it there and deleting it again. A right side that
// cannot be updated is checked by lookup instead.
func (d *Difference) checkPredicate(row *tuple.Tuple) error {
	if !d.opts.EnforcePredicate {
		return nil
	}

	violation := func(cause error) error {
		err := dberror.NewUser(dberror.CodeRowViolatesDifferencePredicate, "row violates difference predicate").
			WithDetail("row (%v)", row).
			In("Validate", "Difference")
		err.Cause = cause
		return err
	}

	if !d.right.updateable() {
		held, err := d.right.contains(row)
		if err != nil {
			return err
		}
		if held {
			return violation(nil)
		}
		return nil
	}

	shaped, err := d.right.shape(row)
	if err != nil {
		return err
	}
	res := propagate.Attempt(func() error { return d.right.source.Insert(shaped) })
	switch res.Kind {
	case propagate.Fault:
		return res.Err
	case propagate.PredicateViolation:
		return violation(res.Err)
	}
	res = propagate.Attempt(func() error { return d.right.source.Delete(shaped) })
	switch res.Kind {
	case propagate.Fault:
		return res.Err
	case propagate.PredicateViolation:
		return violation(res.Err)
	}
	return nil
}

func (d *Difference) mutate(operation string, fn func() error) error {
	if err := d.RequireUpdateable(operation); err != nil {
		return err
	}
	err := fn()
	if !d.IsOpen() {
		return err
	}
	return errors.Join(err, d.First())
}

func (d *Difference) Insert(row *tuple.Tuple) error {
	return d.mutate("Insert", func() error {
		if err := d.checkPredicate(row); err != nil {
			return err
		}
		return d.left.insert(row)
	})
}

func (d *Difference) Update(oldRow, newRow *tuple.Tuple) error {
	return d.mutate("Update", func() error {
		if !d.left.policy.Update {
			return nil
		}
		if err := d.checkPredicate(newRow); err != nil {
			return err
		}
		shapedOld, err := d.left.shape(oldRow)
		if err != nil {
			return err
		}
		shapedNew, err := d.left.shape(newRow)
		if err != nil {
			return err
		}
		return d.left.source.Update(shapedOld, shapedNew)
	})
}

func (d *Difference) Delete(row *tuple.Tuple) error {
	return d.mutate("Delete", func() error {
		if !d.left.policy.Delete {
			return nil
		}
		return d.left.delete(row)
	})
}

func (d *Difference) Default(row *tuple.Tuple, column string) (bool, error) {
	return d.left.defaults(row, column)
}

func (d *Difference) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	return d.left.change(oldRow, newRow, column)
}

// Validate runs only on the descending pass.
func (d *Difference) Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	if !isDescending {
		return false, nil
	}
	return d.left.validate(oldRow, newRow, column, isDescending)
}

// Compile-time check that Difference can search.
var _ cursor.Searcher = (*Difference)(nil)
