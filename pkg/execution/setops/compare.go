package setops

import (
	"errors"
	"fmt"
	"strings"

	"relcore/pkg/cursor"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// Comparison is a relational comparison between two tables.
type Comparison int

const (
	Equal Comparison = iota
	NotEqual
	Subset
	ProperSubset
	Superset
	ProperSuperset
	Disjoint
)

var comparisonNames = map[Comparison]string{
	Equal:          "Equal",
	NotEqual:       "NotEqual",
	Subset:         "Subset",
	ProperSubset:   "ProperSubset",
	Superset:       "Superset",
	ProperSuperset: "ProperSuperset",
	Disjoint:       "Disjoint",
}

func (c Comparison) String() string {
	if name, ok := comparisonNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Comparison(%d)", int(c))
}

// ParseComparison parses a comparison name, case-insensitively.
func ParseComparison(s string) (Comparison, error) {
	for c, name := range comparisonNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return c, nil
		}
	}
	return Equal, fmt.Errorf("unknown table comparison %q", s)
}

// Compare evaluates op over two unopened cursors with the same columns,
// opening and closing both. The result is a Bool field, or nil when either
// input is nil.
func Compare(op Comparison, left, right cursor.Cursor) (result types.Field, err error) {
	if left == nil || right == nil {
		return nil, nil
	}
	if err := validateSchemaCompatibility("Compare", left.TableVar(), right.TableVar()); err != nil {
		return nil, err
	}

	if err := cursor.OpenAll(left, right); err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, cursor.CloseAll(left, right))
	}()

	desc := left.TableVar().RowDesc()
	l, err := loadSet(left, desc)
	if err != nil {
		return nil, err
	}
	r, err := loadSet(right, desc)
	if err != nil {
		return nil, err
	}

	var answer bool
	switch op {
	case Equal:
		answer = l.Size() == r.Size() && containsAll(r, l)
	case NotEqual:
		answer = l.Size() != r.Size() || !containsAll(r, l)
	case Subset:
		answer = containsAll(r, l)
	case ProperSubset:
		answer = l.Size() < r.Size() && containsAll(r, l)
	case Superset:
		answer = containsAll(l, r)
	case ProperSuperset:
		answer = r.Size() < l.Size() && containsAll(l, r)
	case Disjoint:
		answer = !containsAny(r, l)
	default:
		return nil, fmt.Errorf("unknown table comparison %v", op)
	}
	return types.NewBoolField(answer), nil
}

func loadSet(c cursor.Cursor, desc *tuple.TupleDescription) (*TupleSet, error) {
	set := NewTupleSet()
	err := cursor.Iterate(c, func(row *tuple.Tuple) (bool, error) {
		shaped, err := conform(row, desc)
		if err != nil {
			return false, err
		}
		set.Add(shaped)
		return true, nil
	})
	return set, err
}

// containsAll reports whether every row of sub is in super.
func containsAll(super, sub *TupleSet) bool {
	all := true
	sub.Each(func(t *tuple.Tuple) bool {
		all = super.Contains(t)
		return all
	})
	return all
}

func containsAny(set, candidates *TupleSet) bool {
	found := false
	candidates.Each(func(t *tuple.Tuple) bool {
		found = set.Contains(t)
		return !found
	})
	return found
}
