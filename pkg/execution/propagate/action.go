package propagate

import (
	"fmt"
	"strings"
)

// Action controls how an insert on a derived relation reaches a source.
type Action int

const (
	// True always propagates the insert as an insert.
	True Action = iota
	// Ensure looks the row up first and updates it when found, otherwise
	// inserts it.
	Ensure
	// Ignore looks the row up first and inserts it only when absent.
	Ignore
	// False never propagates; the value lives only at the derived level.
	False
)

func (a Action) String() string {
	switch a {
	case True:
		return "True"
	case Ensure:
		return "Ensure"
	case Ignore:
		return "Ignore"
	case False:
		return "False"
	default:
		return "Unknown"
	}
}

// ParseAction parses an action name, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return True, nil
	case "ensure":
		return Ensure, nil
	case "ignore":
		return Ignore, nil
	case "false":
		return False, nil
	default:
		return False, fmt.Errorf("unknown propagate action %q", s)
	}
}

// Side is the propagation policy of one source of an operator.
type Side struct {
	Insert   Action
	Update   bool
	Delete   bool
	Default  bool
	Change   bool
	Validate bool
}

// DefaultSide propagates every operation.
func DefaultSide() Side {
	return Side{
		Insert:   True,
		Update:   true,
		Delete:   true,
		Default:  true,
		Change:   true,
		Validate: true,
	}
}

// Nilable reports whether a side's policy means a logical row may lack the
// values this side would otherwise supply.
func Nilable(s Side) bool {
	return s.Insert == False || !s.Update
}
