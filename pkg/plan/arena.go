// Package plan holds operator trees before they become cursors.
//
// A tree lives in an Arena: nodes refer to their children by NodeID, so a
// subtree can be copied or a child slot replaced without walking pointers.
// Bind turns a tree into a cursor tree bottom up, and Explain prints it.
package plan

import (
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/aggregation"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/execution/query"
	"relcore/pkg/execution/scalar"
	"relcore/pkg/execution/setops"
	"relcore/pkg/schema"
	"relcore/pkg/table"
)

// NodeID identifies a node within its arena.
type NodeID int

// NoNode marks an unset node reference.
const NoNode NodeID = -1

// Kind is the operator a node stands for.
type Kind int

const (
	TableKind Kind = iota
	ProjectKind
	RemoveKind
	RenameKind
	RenameAllKind
	RestrictKind
	SortKind
	QuotaKind
	ExplodeKind
	AggregateKind
	UnionKind
	DifferenceKind

	// groupRestrictKind restricts its child to the group currently being
	// aggregated. The binder splices it in; it is never added directly.
	groupRestrictKind
)

var kindNames = map[Kind]string{
	TableKind:         "Table",
	ProjectKind:       "Project",
	RemoveKind:        "Remove",
	RenameKind:        "Rename",
	RenameAllKind:     "RenameAll",
	RestrictKind:      "Restrict",
	SortKind:          "Sort",
	QuotaKind:         "Quota",
	ExplodeKind:       "Explode",
	AggregateKind:     "Aggregate",
	UnionKind:         "Union",
	DifferenceKind:    "Difference",
	groupRestrictKind: "GroupRestrict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// arity is the number of children each kind takes.
func (k Kind) arity() int {
	switch k {
	case TableKind:
		return 0
	case UnionKind, DifferenceKind, AggregateKind:
		return 2
	default:
		return 1
	}
}

// Node is one operator of a tree. Only the fields its Kind reads are set.
type Node struct {
	ID       NodeID
	Kind     Kind
	Children []NodeID

	Table *table.MemoryTable

	// Columns are projected (Project), removed (Remove) or grouped by
	// (Aggregate).
	Columns []string
	Pairs   []query.RenamePair
	Prefix  string

	Predicate query.Predicate
	// Uses lists the scalar operators Predicate invokes. A predicate using a
	// non-repeatable operator makes its subtree non-repeatable.
	Uses []scalar.Operator

	Order            schema.Order
	Count            int
	EnforcePredicate bool
	Explode          query.ExplodeOptions
	Aggregates       []aggregation.Column

	SetOptions setops.Options
	Algorithm  setops.DifferenceAlgorithm

	// Propagation overrides the operator's default policy when set.
	Propagation *propagate.Side
}

// Arena owns the nodes of one or more operator trees.
type Arena struct {
	nodes []*Node
}

func NewArena() *Arena {
	return &Arena{}
}

// Len returns the number of nodes in the arena.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Add stores n with the given children and returns its id.
func (a *Arena) Add(n Node, children ...NodeID) NodeID {
	id := NodeID(len(a.nodes))
	n.ID = id
	n.Children = append([]NodeID(nil), children...)
	a.nodes = append(a.nodes, &n)
	return id
}

// Node returns the node with the given id.
func (a *Arena) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(a.nodes) {
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "node not in arena").
			WithDetail("node %d of %d", id, len(a.nodes)).
			In("Node", "Arena")
	}
	return a.nodes[id], nil
}

// Splice replaces the child in slot of parent with child.
func (a *Arena) Splice(parent NodeID, slot int, child NodeID) error {
	p, err := a.Node(parent)
	if err != nil {
		return err
	}
	if _, err := a.Node(child); err != nil {
		return err
	}
	if slot < 0 || slot >= len(p.Children) {
		return dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "child slot out of range").
			WithDetail("%s node %d has %d children, slot %d", p.Kind, parent, len(p.Children), slot).
			In("Splice", "Arena")
	}
	p.Children[slot] = child
	return nil
}

// Copy duplicates the subtree rooted at id and returns the root of the
// copy. Base tables are shared, not copied.
func (a *Arena) Copy(id NodeID) (NodeID, error) {
	n, err := a.Node(id)
	if err != nil {
		return NoNode, err
	}
	children := make([]NodeID, len(n.Children))
	for i, child := range n.Children {
		if children[i], err = a.Copy(child); err != nil {
			return NoNode, err
		}
	}
	return a.Add(*n, children...), nil
}

// Convenience constructors.

func (a *Arena) Table(t *table.MemoryTable) NodeID {
	return a.Add(Node{Kind: TableKind, Table: t})
}

func (a *Arena) Project(source NodeID, columns ...string) NodeID {
	return a.Add(Node{Kind: ProjectKind, Columns: columns}, source)
}

func (a *Arena) Remove(source NodeID, columns ...string) NodeID {
	return a.Add(Node{Kind: RemoveKind, Columns: columns}, source)
}

func (a *Arena) Rename(source NodeID, pairs ...query.RenamePair) NodeID {
	return a.Add(Node{Kind: RenameKind, Pairs: pairs}, source)
}

func (a *Arena) RenameAll(source NodeID, prefix string) NodeID {
	return a.Add(Node{Kind: RenameAllKind, Prefix: prefix}, source)
}

func (a *Arena) Restrict(source NodeID, predicate query.Predicate, uses ...scalar.Operator) NodeID {
	return a.Add(Node{Kind: RestrictKind, Predicate: predicate, Uses: uses}, source)
}

func (a *Arena) Sort(source NodeID, order schema.Order) NodeID {
	return a.Add(Node{Kind: SortKind, Order: order}, source)
}

// Quota enforces its predicate; clear Node.EnforcePredicate to turn it off.
func (a *Arena) Quota(source NodeID, order schema.Order, count int) NodeID {
	return a.Add(Node{Kind: QuotaKind, Order: order, Count: count, EnforcePredicate: true}, source)
}

func (a *Arena) Explode(source NodeID, opts query.ExplodeOptions) NodeID {
	return a.Add(Node{Kind: ExplodeKind, Explode: opts}, source)
}

// Aggregate takes the source twice: slot 0 supplies the groups and slot 1
// the rows of each group. Bind splices a group restriction into slot 1.
func (a *Arena) Aggregate(source NodeID, by []string, columns ...aggregation.Column) NodeID {
	return a.Add(Node{Kind: AggregateKind, Columns: by, Aggregates: columns}, source, source)
}

func (a *Arena) Union(left, right NodeID, opts setops.Options) NodeID {
	return a.Add(Node{Kind: UnionKind, SetOptions: opts}, left, right)
}

func (a *Arena) Difference(left, right NodeID, opts setops.Options, algorithm setops.DifferenceAlgorithm) NodeID {
	return a.Add(Node{Kind: DifferenceKind, SetOptions: opts, Algorithm: algorithm}, left, right)
}
