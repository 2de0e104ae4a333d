package extract

import (
	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// Index returns the row of c whose keyColumns equal values, or nil when
// there is none. Searchable cursors are positioned with FindKey; others are
// scanned.
func Index(c cursor.Cursor, keyColumns []string, values []types.Field) (*tuple.Tuple, error) {
	if c == nil {
		return nil, nil
	}
	if len(keyColumns) != len(values) || len(keyColumns) == 0 {
		return nil, dberror.NewUser(dberror.CodeInvalidSearchLength, "search values do not match the key").
			WithDetail("%d key columns, %d values", len(keyColumns), len(values)).
			In("Index", "Extract")
	}

	tv := c.TableVar()
	idx, err := tv.ResolveColumns(keyColumns)
	if err != nil {
		return nil, err
	}
	columns := make([]tuple.Column, len(idx))
	for i, j := range idx {
		columns[i] = tuple.Column{Name: tv.Columns[j].Name, Type: tv.Columns[j].Type}
	}
	desc, err := tuple.NewTupleDescFromColumns(columns)
	if err != nil {
		return nil, err
	}
	key, err := tuple.FromFields(desc, values...)
	if err != nil {
		return nil, dberror.NewUser(dberror.CodeInvalidSearchLength, "search values do not fit the key").
			WithDetail("%v", err).
			In("Index", "Extract")
	}

	searcher, searchable := c.(cursor.Searcher)
	searchable = searchable && c.Supports(cursor.Searchable) && tv.ClusteringKey().Equivalent(schema.Key{Columns: keyColumns})

	var found *tuple.Tuple
	err = withOpen(c, func() error {
		if searchable {
			ok, err := searcher.FindKey(key)
			if err != nil || !ok {
				return err
			}
			found, err = c.Select()
			return err
		}
		return cursor.Iterate(c, func(row *tuple.Tuple) (bool, error) {
			if cursor.MatchesByName(row, key) {
				found = row
				return false, nil
			}
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// IndexList returns the ith element of list, nil when list is nil.
func IndexList(list *tuple.List, i int) (types.Field, error) {
	if list == nil {
		return nil, nil
	}
	element, err := list.Get(i)
	if err != nil {
		return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "list index out of range").
			WithDetail("%v", err).
			In("IndexList", "Extract")
	}
	return element, nil
}
