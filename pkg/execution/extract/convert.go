package extract

import (
	"strconv"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/table"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

const (
	// ValueColumn holds the elements of a scalar list converted to a table.
	ValueColumn = "value"
	// SequenceColumn is the default name of the element position column.
	SequenceColumn = "sequence"
)

// ToTable converts a list into a table keyed by element position. Scalar
// elements land in a value column; row elements are flattened into their
// columns. The position column is named sequenceColumn, or "sequence" when
// empty, suffixed with a number if a row column already uses the name.
// Positions start at 0.
func ToTable(list *tuple.List, sequenceColumn string) (*table.MemoryTable, error) {
	if list == nil {
		return nil, nil
	}
	if sequenceColumn == "" {
		sequenceColumn = SequenceColumn
	}

	var columns []schema.Column
	if list.ElementType == types.RowType {
		if list.RowDesc == nil {
			return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "row list has no row type").
				In("ToTable", "Extract")
		}
		for _, c := range list.RowDesc.Columns {
			col := schema.NewColumn(c.Name, c.Type)
			col.IsNilable = true
			columns = append(columns, col)
		}
	} else {
		value := schema.NewColumn(ValueColumn, list.ElementType)
		value.IsNilable = true
		columns = append(columns, value)
	}

	sequenceColumn = uniqueName(columns, sequenceColumn)
	columns = append(columns, schema.NewColumn(sequenceColumn, types.IntType))

	tv, err := schema.NewTableVar("list", columns)
	if err != nil {
		return nil, err
	}
	tv.Keys = []schema.Key{{Columns: []string{sequenceColumn}}}
	tbl := table.NewMemoryTable(tv)

	desc := tv.RowDesc()
	seqIdx := desc.IndexOf(sequenceColumn)
	for i := range list.Len() {
		element, err := list.Get(i)
		if err != nil {
			return nil, err
		}

		row := tuple.NewTuple(desc)
		if rf, ok := element.(*tuple.RowField); ok {
			for j := range list.RowDesc.NumFields() {
				if err := row.SetField(j, rf.Row.Field(j)); err != nil {
					return nil, err
				}
			}
		} else if err := row.SetField(0, element); err != nil {
			return nil, err
		}
		if err := row.SetField(seqIdx, types.NewIntField(int64(i))); err != nil {
			return nil, err
		}
		if err := tbl.Insert(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func uniqueName(columns []schema.Column, base string) string {
	taken := func(name string) bool {
		for _, c := range columns {
			if c.Name == name {
				return true
			}
		}
		return false
	}
	name := base
	for i := 1; taken(name); i++ {
		name = base + strconv.Itoa(i)
	}
	return name
}

// ToList drains c into a list of row values in cursor order. A nil cursor
// gives a nil list.
func ToList(c cursor.Cursor) (*tuple.List, error) {
	if c == nil {
		return nil, nil
	}
	list := tuple.NewRowList(c.TableVar().RowDesc())
	err := withOpen(c, func() error {
		return cursor.Iterate(c, func(row *tuple.Tuple) (bool, error) {
			return true, list.Append(tuple.NewRowField(row))
		})
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
