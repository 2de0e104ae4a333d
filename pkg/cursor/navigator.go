package cursor

import (
	dberror "relcore/pkg/error"
	"relcore/pkg/tuple"
)

// State is the position of a cursor relative to its rows.
type State int

const (
	Closed State = iota
	BeforeFirst
	OnRow
	AfterLast
)

func (s State) String() string {
	switch s {
	case BeforeFirst:
		return "BeforeFirst"
	case OnRow:
		return "OnRow"
	case AfterLast:
		return "AfterLast"
	default:
		return "Closed"
	}
}

// ReadFunc returns the next row in one direction, or nil when there are no
// more rows that way.
type ReadFunc func() (*tuple.Tuple, error)

// RewindFunc repositions the underlying read to the before-first crack, or
// to the after-last crack when toEnd is set.
type RewindFunc func(toEnd bool) error

// Navigator implements the crack state machine shared by every cursor.
// Operators supply the read functions; the navigator owns the state and the
// current row.
type Navigator struct {
	state  State
	row    *tuple.Tuple
	next   ReadFunc
	prior  ReadFunc // nil when backwards navigation is not supported
	rewind RewindFunc
}

// NewNavigator creates a closed navigator. rewind may be nil for sources
// that restart on their own.
func NewNavigator(next ReadFunc, rewind RewindFunc) *Navigator {
	return &Navigator{next: next, rewind: rewind}
}

// SetPrior enables backwards navigation.
func (n *Navigator) SetPrior(prior ReadFunc) {
	n.prior = prior
}

// Start marks the navigator open and positioned before the first row.
func (n *Navigator) Start() error {
	n.state = BeforeFirst
	n.row = nil
	if n.rewind != nil {
		if err := n.rewind(false); err != nil {
			n.state = Closed
			return err
		}
	}
	return nil
}

// Stop marks the navigator closed and drops the current row.
func (n *Navigator) Stop() {
	n.state = Closed
	n.row = nil
}

// IsOpen reports whether the navigator has been started and not stopped.
func (n *Navigator) IsOpen() bool {
	return n.state != Closed
}

// State returns the current crack state.
func (n *Navigator) State() State {
	return n.state
}

func (n *Navigator) checkOpen(operation string) error {
	if n.state == Closed {
		return dberror.NewSystem(dberror.CodeCursorNotOpen, "cursor is not open").In(operation, "Navigator")
	}
	return nil
}

// Reset re-evaluates from the start. Operators with cached state override it.
func (n *Navigator) Reset() error {
	return n.First()
}

// First positions before the first row.
func (n *Navigator) First() error {
	if err := n.checkOpen("First"); err != nil {
		return err
	}
	if n.rewind != nil {
		if err := n.rewind(false); err != nil {
			return err
		}
	}
	n.state = BeforeFirst
	n.row = nil
	return nil
}

// Last positions after the last row. Forward-only cursors get there by
// reading to the end.
func (n *Navigator) Last() error {
	if err := n.checkOpen("Last"); err != nil {
		return err
	}

	if n.prior != nil && n.rewind != nil {
		if err := n.rewind(true); err != nil {
			return err
		}
	} else {
		for n.state != AfterLast {
			if _, err := n.Next(); err != nil {
				return err
			}
		}
	}

	n.state = AfterLast
	n.row = nil
	return nil
}

// Next moves to the following row and reports whether one exists. Once
// after the last row it keeps returning false without reading again.
func (n *Navigator) Next() (bool, error) {
	if err := n.checkOpen("Next"); err != nil {
		return false, err
	}
	if n.state == AfterLast {
		return false, nil
	}

	row, err := n.next()
	if err != nil {
		return false, err
	}
	if row == nil {
		n.state = AfterLast
		n.row = nil
		return false, nil
	}

	n.state = OnRow
	n.row = row
	return true, nil
}

// Prior moves to the preceding row and reports whether one exists.
func (n *Navigator) Prior() (bool, error) {
	if err := n.checkOpen("Prior"); err != nil {
		return false, err
	}
	if n.prior == nil {
		return false, dberror.NewSystem(dberror.CodeCapabilityNotSupported, "cursor is not backwards navigable").
			In("Prior", "Navigator")
	}
	if n.state == BeforeFirst {
		return false, nil
	}

	row, err := n.prior()
	if err != nil {
		return false, err
	}
	if row == nil {
		n.state = BeforeFirst
		n.row = nil
		return false, nil
	}

	n.state = OnRow
	n.row = row
	return true, nil
}

// BOF reports whether the cursor is before the first row.
func (n *Navigator) BOF() bool {
	return n.state == BeforeFirst
}

// EOF reports whether the cursor is after the last row.
func (n *Navigator) EOF() bool {
	return n.state == AfterLast
}

// Select returns a caller-owned copy of the current row.
func (n *Navigator) Select() (*tuple.Tuple, error) {
	row, err := n.Current()
	if err != nil {
		return nil, err
	}
	return row.Clone(), nil
}

// Current returns the current row without copying it. The row must not be
// retained past the next navigation call.
func (n *Navigator) Current() (*tuple.Tuple, error) {
	if err := n.checkOpen("Select"); err != nil {
		return nil, err
	}
	if n.state != OnRow {
		return nil, dberror.NewSystem(dberror.CodeNoCurrentRow, "cursor is not positioned on a row").
			WithDetail("state %v", n.state).
			In("Select", "Navigator")
	}
	return n.row, nil
}

// Position places the navigator on row, after a search or bookmark jump.
func (n *Navigator) Position(row *tuple.Tuple) {
	n.state = OnRow
	n.row = row
}
