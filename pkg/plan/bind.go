package plan

import (
	"log/slog"

	"github.com/google/uuid"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/aggregation"
	"relcore/pkg/execution/query"
	"relcore/pkg/execution/setops"
	"relcore/pkg/logging"
	"relcore/pkg/tuple"
)

type binder struct {
	arena  *Arena
	req    cursor.Request
	logger *slog.Logger
}

// Bind turns the tree rooted at root into a cursor tree.
//
// Binding runs in three steps:
//   - prepare checks child counts and aggregate repeatability, and splices
//     a group restriction into every Aggregate
//   - build creates the cursors bottom up; the first construction error
//     aborts the bind
//   - the root is materialized when req asks for more than it provides
//
// The returned cursor is not open.
func Bind(a *Arena, root NodeID, req cursor.Request) (cursor.Cursor, error) {
	b := &binder{
		arena:  a,
		req:    req,
		logger: logging.WithPlan(uuid.NewString()),
	}

	if err := b.prepare(root); err != nil {
		b.logger.Debug("bind rejected", "root", int(root), "error", err)
		return nil, err
	}
	c, err := b.build(root, nil)
	if err != nil {
		b.logger.Debug("bind aborted", "root", int(root), "error", err)
		return nil, err
	}

	bound := cursor.Satisfy(c, req)
	if bound != c {
		b.logger.Debug("materializing bound cursor", "operator", c.TableVar().Name,
			"requested", req.Capabilities.String(), "derived", c.Capabilities().String())
	}
	return bound, nil
}

func (b *binder) prepare(id NodeID) error {
	n, err := b.arena.Node(id)
	if err != nil {
		return err
	}
	if len(n.Children) != n.Kind.arity() {
		return dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "wrong number of operands").
			WithDetail("%s node %d has %d, needs %d", n.Kind, id, len(n.Children), n.Kind.arity()).
			In("Bind", n.Kind.String())
	}

	if n.Kind == AggregateKind {
		repeatable, err := Repeatable(b.arena, n.Children[1])
		if err != nil {
			return err
		}
		if !repeatable {
			return dberror.NewUser(dberror.CodeNonRepeatableAggregationSource, "aggregate source is not repeatable").
				WithDetail("aggregate node %d", id).
				WithHint("remove non-repeatable operators such as random from the source").
				In("Bind", n.Kind.String())
		}
		if err := b.spliceGroup(n); err != nil {
			return err
		}
	}

	for _, child := range n.Children {
		if err := b.prepare(child); err != nil {
			return err
		}
	}
	return nil
}

// spliceGroup places a group restriction over the per-group slot of an
// Aggregate. A node that is already restricted is left alone.
func (b *binder) spliceGroup(n *Node) error {
	slot, err := b.arena.Node(n.Children[1])
	if err != nil {
		return err
	}
	if slot.Kind == groupRestrictKind {
		return nil
	}
	restricted := b.arena.Add(Node{Kind: groupRestrictKind}, slot.ID)
	return b.arena.Splice(n.ID, 1, restricted)
}

// Repeatable reports whether the tree rooted at id delivers the same rows
// every time it is read from an unchanged base.
func Repeatable(a *Arena, id NodeID) (bool, error) {
	n, err := a.Node(id)
	if err != nil {
		return false, err
	}
	for _, op := range n.Uses {
		if !op.Repeatable() {
			return false, nil
		}
	}
	for _, child := range n.Children {
		ok, err := Repeatable(a, child)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// build creates the cursor for id. group is the row of the group being
// aggregated, nil outside of a group source.
func (b *binder) build(id NodeID, group *tuple.Tuple) (cursor.Cursor, error) {
	n, err := b.arena.Node(id)
	if err != nil {
		return nil, err
	}

	if n.Kind == TableKind {
		if n.Table == nil {
			return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "table node without a table").
				WithDetail("node %d", id).
				In("Bind", n.Kind.String())
		}
		return n.Table.Cursor(), nil
	}

	children := make([]cursor.Cursor, len(n.Children))
	for i, child := range n.Children {
		if n.Kind == AggregateKind && i == 1 {
			// Built once per group by the group source.
			continue
		}
		if children[i], err = b.build(child, group); err != nil {
			return nil, err
		}
	}

	switch n.Kind {
	case ProjectKind, RemoveKind:
		newProject := query.NewProject
		if n.Kind == RemoveKind {
			newProject = query.NewRemove
		}
		p, err := newProject(b.req, children[0], n.Columns)
		if err != nil {
			return nil, err
		}
		if n.Propagation != nil {
			p.Propagation = *n.Propagation
		}
		return p, nil

	case RenameKind:
		return query.NewRename(b.req, children[0], n.Pairs)

	case RenameAllKind:
		return query.NewRenameAll(b.req, children[0], n.Prefix)

	case RestrictKind:
		return query.NewRestrict(b.req, children[0], n.Predicate)

	case SortKind:
		return query.NewSort(b.req, children[0], n.Order)

	case QuotaKind:
		q, err := query.NewQuota(b.req, children[0], n.Order, n.Count)
		if err != nil {
			return nil, err
		}
		q.EnforcePredicate = n.EnforcePredicate
		if n.Propagation != nil {
			q.Propagation = *n.Propagation
		}
		return q, nil

	case ExplodeKind:
		e, err := query.NewExplode(b.req, children[0], n.Explode)
		if err != nil {
			return nil, err
		}
		if n.Propagation != nil {
			e.Propagation = *n.Propagation
		}
		return e, nil

	case AggregateKind:
		return b.buildAggregate(n, children[0])

	case groupRestrictKind:
		if group == nil || group.TupleDesc.NumFields() == 0 {
			return children[0], nil
		}
		return query.NewRowRestrict(b.req, children[0], group)

	case UnionKind:
		return setops.NewUnion(b.req, children[0], children[1], n.SetOptions)

	case DifferenceKind:
		return setops.NewDifference(b.req, children[0], children[1], n.SetOptions, n.Algorithm)

	default:
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "unknown node kind").
			WithDetail("node %d of kind %d", id, int(n.Kind)).
			In("Bind", "Plan")
	}
}

func (b *binder) buildAggregate(n *Node, source cursor.Cursor) (cursor.Cursor, error) {
	var groups cursor.Cursor
	if len(n.Columns) > 0 {
		p, err := query.NewProject(b.req, source, n.Columns)
		if err != nil {
			return nil, err
		}
		groups = p
	}

	perGroup := n.Children[1]
	groupSource := func(group *tuple.Tuple) (cursor.Cursor, error) {
		return b.build(perGroup, group)
	}
	return aggregation.NewAggregate(b.req, source.TableVar(), groups, groupSource, n.Aggregates)
}
