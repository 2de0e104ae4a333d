package schema

import (
	"slices"
	"strings"

	"relcore/pkg/tuple"
)

// Key is a set of columns declared unique over a relation. An empty key
// means the relation holds at most one row.
type Key struct {
	Columns     []string
	IsInherited bool

	// IsSparse keys are unique only among rows where every key column has
	// a value.
	IsSparse bool
}

// Equivalent reports whether both keys cover the same column set.
func (k Key) Equivalent(other Key) bool {
	if len(k.Columns) != len(other.Columns) {
		return false
	}
	for _, c := range k.Columns {
		if !slices.Contains(other.Columns, c) {
			return false
		}
	}
	return true
}

// Contains reports whether name is one of the key columns.
func (k Key) Contains(name string) bool {
	return slices.Contains(k.Columns, name)
}

// IsSubsetOf reports whether every key column is in names.
func (k Key) IsSubsetOf(names []string) bool {
	for _, c := range k.Columns {
		if !slices.Contains(names, c) {
			return false
		}
	}
	return true
}

// Indexes resolves the key columns against a row description. Missing
// columns resolve to -1.
func (k Key) Indexes(desc *tuple.TupleDescription) []int {
	out := make([]int, len(k.Columns))
	for i, c := range k.Columns {
		out[i] = desc.IndexOf(c)
	}
	return out
}

func (k Key) String() string {
	return "key{" + strings.Join(k.Columns, ", ") + "}"
}

// Reference is a foreign-key-like relationship from columns of this relation
// to columns of another relation.
type Reference struct {
	Name          string
	SourceColumns []string
	TargetTable   string
	TargetColumns []string
	IsDerived     bool
}
