package plan

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cznic/strutil"
)

// Explain writes the tree rooted at root as an indented operator listing,
// one operator per line with its operands below it.
func Explain(w io.Writer, a *Arena, root NodeID) error {
	return explain(strutil.IndentFormatter(w, "│   "), a, root)
}

// ExplainString returns the listing Explain would write.
func ExplainString(a *Arena, root NodeID) (string, error) {
	var buf bytes.Buffer
	if err := Explain(&buf, a, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func explain(w strutil.Formatter, a *Arena, id NodeID) error {
	n, err := a.Node(id)
	if err != nil {
		return err
	}
	if _, err := w.Format("%s%s%i\n", n.Kind, describe(n)); err != nil {
		return err
	}
	for _, child := range n.Children {
		if err := explain(w, a, child); err != nil {
			return err
		}
	}
	_, err = w.Format("%u")
	return err
}

func describe(n *Node) string {
	switch n.Kind {
	case TableKind:
		if n.Table == nil {
			return " <missing>"
		}
		return " " + n.Table.Name()
	case ProjectKind, RemoveKind:
		return " {" + strings.Join(n.Columns, ", ") + "}"
	case RenameKind:
		parts := make([]string, len(n.Pairs))
		for i, p := range n.Pairs {
			parts[i] = p.From + " as " + p.To
		}
		return " {" + strings.Join(parts, ", ") + "}"
	case RenameAllKind:
		return " " + n.Prefix
	case RestrictKind:
		if len(n.Uses) == 0 {
			return ""
		}
		names := make([]string, len(n.Uses))
		for i, op := range n.Uses {
			names[i] = op.Name()
		}
		return " using " + strings.Join(names, ", ")
	case SortKind:
		return " " + n.Order.String()
	case QuotaKind:
		s := fmt.Sprintf(" %d by %s", n.Count, n.Order)
		if n.EnforcePredicate {
			s += " enforced"
		}
		return s
	case ExplodeKind:
		links := make([]string, len(n.Explode.Links))
		for i, l := range n.Explode.Links {
			links[i] = l.Parent + " -> " + l.Child
		}
		return " {" + strings.Join(links, ", ") + "}"
	case AggregateKind:
		columns := make([]string, len(n.Aggregates))
		for i, c := range n.Aggregates {
			arg := c.Source
			if c.Distinct {
				arg = "distinct " + arg
			}
			columns[i] = fmt.Sprintf("%s(%s) as %s", c.Op, arg, c.Name)
		}
		s := " {" + strings.Join(columns, ", ") + "}"
		if len(n.Columns) > 0 {
			s += " by {" + strings.Join(n.Columns, ", ") + "}"
		}
		return s
	case UnionKind:
		if n.SetOptions.EnforcePredicate {
			return " enforced"
		}
		return ""
	case DifferenceKind:
		s := " " + n.Algorithm.String()
		if n.SetOptions.EnforcePredicate {
			s += " enforced"
		}
		return s
	default:
		return ""
	}
}
