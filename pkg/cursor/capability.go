package cursor

import "strings"

// Capability is a set of cursor capability flags.
type Capability uint16

const (
	Navigable Capability = 1 << iota
	BackwardsNavigable
	Bookmarkable
	Searchable
	Countable
	Updateable
	Truncateable
	Elaborable
)

// PassThrough is the set of capabilities a derived cursor may inherit from
// its source when its transform does not break them.
const PassThrough = BackwardsNavigable | Bookmarkable | Searchable | Countable | Truncateable

// All holds every capability.
const All = Navigable | BackwardsNavigable | Bookmarkable | Searchable | Countable | Updateable | Truncateable | Elaborable

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{Navigable, "Navigable"},
	{BackwardsNavigable, "BackwardsNavigable"},
	{Bookmarkable, "Bookmarkable"},
	{Searchable, "Searchable"},
	{Countable, "Countable"},
	{Updateable, "Updateable"},
	{Truncateable, "Truncateable"},
	{Elaborable, "Elaborable"},
}

// Has reports whether every flag of other is set in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	var names []string
	for _, cn := range capabilityNames {
		if c.Has(cn.cap) {
			names = append(names, cn.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// CursorType distinguishes cursors that materialize their rows when opened
// from cursors that re-evaluate against live sources.
type CursorType int

const (
	Dynamic CursorType = iota
	Static
)

func (t CursorType) String() string {
	if t == Static {
		return "Static"
	}
	return "Dynamic"
}

// Isolation is the isolation level a cursor is requested under. The core
// carries it through but does not implement concurrency control.
type Isolation int

const (
	Browse Isolation = iota
	CursorStability
	Isolated
)

func (i Isolation) String() string {
	switch i {
	case CursorStability:
		return "CursorStability"
	case Isolated:
		return "Isolated"
	default:
		return "Browse"
	}
}

// Request is what the calling context asks of a cursor.
type Request struct {
	Capabilities Capability
	CursorType   CursorType
	Isolation    Isolation

	// ElaborationEnabled is the compile-time switch gating reference
	// derivation and the Elaborable capability.
	ElaborationEnabled bool
}

// DefaultRequest asks for a navigable, updateable dynamic cursor.
func DefaultRequest() Request {
	return Request{
		Capabilities:       Navigable | Updateable,
		CursorType:         Dynamic,
		Isolation:          CursorStability,
		ElaborationEnabled: true,
	}
}

// Derive computes the capabilities of a derived cursor. Navigable is always
// present; pass-through capabilities are kept when both preserved by the
// operator and supported by the source; Updateable and Elaborable also
// require the request to ask for them.
func Derive(req Request, source, preserved Capability, operatorUpdateable bool) Capability {
	caps := Navigable
	caps |= source & preserved & PassThrough

	if req.Capabilities.Has(Updateable) && source.Has(Updateable) && operatorUpdateable {
		caps |= Updateable
	}
	if req.Capabilities.Has(Elaborable) && source.Has(Elaborable) && req.ElaborationEnabled {
		caps |= Elaborable
	}
	return caps
}
