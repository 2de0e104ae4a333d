// Package extract bridges relations and scalar values: pulling a single row
// or value out of a table, testing for rows, and converting between tables
// and lists.
//
// Every function taking a cursor expects it unopened. It is opened, read and
// closed again on every path.
package extract

import (
	"errors"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/logging"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// CheckRowExtractor reports whether a relation is provably a singleton and
// logs a warning when it is not, since extracting a row from it may fail at
// run time.
func CheckRowExtractor(tv *schema.TableVar) bool {
	if tv.IsSingleton() {
		return true
	}
	logging.WithComponent("extract").Warn("row extraction source is not provably a singleton",
		"table", tv.Name,
		"keys", len(tv.Keys),
	)
	return false
}

// withOpen opens c, runs fn and closes c, joining any close error.
func withOpen(c cursor.Cursor, fn func() error) (err error) {
	if err := c.Open(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()
	return fn()
}

// ExtractRow returns the only row of c, or nil when c is nil or empty.
// A second row is an InvalidRowExtractorExpression error.
func ExtractRow(c cursor.Cursor) (*tuple.Tuple, error) {
	if c == nil {
		return nil, nil
	}

	var row *tuple.Tuple
	err := withOpen(c, func() error {
		ok, err := c.Next()
		if err != nil || !ok {
			return err
		}
		if row, err = c.Select(); err != nil {
			return err
		}

		more, err := c.Next()
		if err != nil {
			return err
		}
		if more {
			row = nil
			return dberror.NewUser(dberror.CodeInvalidRowExtractorExpression, "row extractor found more than one row").
				WithDetail("table %s", c.TableVar().Name).
				In("ExtractRow", "Extract")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ExtractColumn returns the named column of the only row of c. The result
// is nil when there is no row or the column has no value.
func ExtractColumn(c cursor.Cursor, name string) (types.Field, error) {
	if c == nil {
		return nil, nil
	}
	if !c.TableVar().HasColumn(name) {
		return nil, columnNotFound("ExtractColumn", name)
	}
	row, err := ExtractRow(c)
	if err != nil || row == nil {
		return nil, err
	}
	return row.FieldByName(name)
}

// ExtractRowColumn returns the named column of row, nil when row is nil or
// the column has no value.
func ExtractRowColumn(row *tuple.Tuple, name string) (types.Field, error) {
	if row == nil {
		return nil, nil
	}
	if row.TupleDesc.IndexOf(name) < 0 {
		return nil, columnNotFound("ExtractRowColumn", name)
	}
	return row.FieldByName(name)
}

func columnNotFound(operation, name string) error {
	return dberror.NewUser(dberror.CodeColumnNotFound, "column not found").
		WithDetail("column %q", name).
		In(operation, "Extract")
}

// Exists reports whether c has any row, as a Bool field. A nil cursor gives
// nil.
func Exists(c cursor.Cursor) (types.Field, error) {
	if c == nil {
		return nil, nil
	}
	var empty bool
	err := withOpen(c, func() error {
		var err error
		empty, err = cursor.IsEmpty(c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return types.NewBoolField(!empty), nil
}
