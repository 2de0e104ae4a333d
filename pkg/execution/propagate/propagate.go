package propagate

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/tuple"
)

// Kind classifies the outcome of a trial mutation.
type Kind int

const (
	OK Kind = iota
	// PredicateViolation is an expected, user-severity failure.
	PredicateViolation
	// Fault is any other failure. Faults must be returned unchanged.
	Fault
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "OK"
	case PredicateViolation:
		return "PredicateViolation"
	default:
		return "Fault"
	}
}

// Result is the classified outcome of Attempt.
type Result struct {
	Kind Kind
	Err  error
}

// Attempt runs fn and classifies its error by severity.
func Attempt(fn func() error) Result {
	err := fn()
	switch {
	case err == nil:
		return Result{Kind: OK}
	case dberror.IsUser(err):
		return Result{Kind: PredicateViolation, Err: err}
	default:
		return Result{Kind: Fault, Err: err}
	}
}

// Insert propagates an insert of row into target according to action.
func Insert(target cursor.Cursor, row *tuple.Tuple, action Action) error {
	switch action {
	case True:
		return target.Insert(row)

	case Ensure, Ignore:
		located, found, err := cursor.Locate(target, row)
		if err != nil {
			return err
		}
		if !found {
			return target.Insert(row)
		}
		if action == Ensure {
			return target.Update(located, row)
		}
		return nil

	default:
		return nil
	}
}
