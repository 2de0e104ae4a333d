package cursor

import (
	"errors"
	"fmt"

	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// OpenAll opens the cursors in order. If one fails, the cursors already
// opened are closed in reverse order and the open error is returned.
func OpenAll(cursors ...Cursor) error {
	for i, c := range cursors {
		if err := c.Open(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = cursors[j].Close()
			}
			return err
		}
	}
	return nil
}

// CloseAll closes every cursor in reverse order, joining any errors.
func CloseAll(cursors ...Cursor) error {
	var errs []error
	for i := len(cursors) - 1; i >= 0; i-- {
		if err := cursors[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Iterate visits every row from the start of an open cursor. The process
// function controls iteration flow:
// - Return (false, nil) to stop iteration early
// - Return (true, nil) to continue
// - Return (_, error) to stop with error
func Iterate(c Cursor, process func(*tuple.Tuple) (continueLooping bool, err error)) error {
	if err := c.First(); err != nil {
		return err
	}

	for {
		ok, err := c.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		row, err := c.Select()
		if err != nil {
			return err
		}

		more, err := process(row)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Collect returns every row of an open cursor.
func Collect(c Cursor) ([]*tuple.Tuple, error) {
	var rows []*tuple.Tuple
	err := Iterate(c, func(row *tuple.Tuple) (bool, error) {
		rows = append(rows, row)
		return true, nil
	})
	return rows, err
}

// Count returns the number of rows of an open cursor, asking the cursor
// directly when it is countable.
func Count(c Cursor) (int, error) {
	if counter, ok := c.(Counter); ok && c.Supports(Countable) {
		return counter.RowCount()
	}

	n := 0
	err := Iterate(c, func(*tuple.Tuple) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

// IsEmpty reports whether an open cursor has no rows.
func IsEmpty(c Cursor) (bool, error) {
	if err := c.First(); err != nil {
		return false, err
	}
	ok, err := c.Next()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// KeyRow builds a row holding the key columns of key, read by name from row.
func KeyRow(key schema.Key, desc *tuple.TupleDescription, row *tuple.Tuple) (*tuple.Tuple, error) {
	columns := make([]tuple.Column, len(key.Columns))
	values := make([]types.Field, len(key.Columns))
	for i, name := range key.Columns {
		idx := desc.IndexOf(name)
		if idx < 0 {
			return nil, dberror.NewUser(dberror.CodeColumnNotFound, "key column not found").
				WithDetail("column %q", name)
		}
		columns[i] = desc.Columns[idx]

		v, err := row.FieldByName(name)
		if err != nil {
			return nil, dberror.NewUser(dberror.CodeColumnNotFound, "row lacks key column").
				WithDetail("column %q", name)
		}
		values[i] = v
	}

	keyDesc, err := tuple.NewTupleDescFromColumns(columns)
	if err != nil {
		return nil, err
	}
	return tuple.FromFields(keyDesc, values...)
}

// MatchesByName reports whether every column of pattern has an equal
// same-named column in row.
func MatchesByName(row, pattern *tuple.Tuple) bool {
	for i, c := range pattern.TupleDesc.Columns {
		v, err := row.FieldByName(c.Name)
		if err != nil || !types.FieldsEqual(v, pattern.Field(i)) {
			return false
		}
	}
	return true
}

// Locate positions c on the row whose clustering key matches row and
// returns a copy of it. Searchable cursors use FindKey; others are scanned.
func Locate(c Cursor, row *tuple.Tuple) (*tuple.Tuple, bool, error) {
	tv := c.TableVar()
	key, err := KeyRow(tv.ClusteringKey(), tv.RowDesc(), row)
	if err != nil {
		return nil, false, err
	}

	if searcher, ok := c.(Searcher); ok && c.Supports(Searchable) {
		found, err := searcher.FindKey(key)
		if err != nil || !found {
			return nil, false, err
		}
		located, err := c.Select()
		if err != nil {
			return nil, false, err
		}
		return located, true, nil
	}

	var located *tuple.Tuple
	err = Iterate(c, func(candidate *tuple.Tuple) (bool, error) {
		if MatchesByName(candidate, key) {
			located = candidate
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return nil, false, err
	}
	return located, located != nil, nil
}

// Contains reports whether c holds a row equal to row on every column of c.
func Contains(c Cursor, row *tuple.Tuple) (bool, error) {
	located, found, err := Locate(c, row)
	if err != nil || !found {
		return false, err
	}
	return MatchesByName(row, located), nil
}

// UpdateCurrent replaces the current row of c with row.
func UpdateCurrent(c Cursor, row *tuple.Tuple) error {
	old, err := c.Select()
	if err != nil {
		return fmt.Errorf("update current: %w", err)
	}
	return c.Update(old, row)
}

// DeleteCurrent deletes the current row of c.
func DeleteCurrent(c Cursor) error {
	old, err := c.Select()
	if err != nil {
		return fmt.Errorf("delete current: %w", err)
	}
	return c.Delete(old)
}
