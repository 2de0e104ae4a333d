package table

import (
	"slices"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/primitives"
	"relcore/pkg/tuple"
)

// Cursor is a dynamic cursor over a MemoryTable. It supports every
// capability: navigation both ways, bookmarks, key search, counting and
// updates. Rows are read live, so mutations made through any cursor are
// visible on the next navigation.
type Cursor struct {
	*cursor.Base
	table   *MemoryTable
	pos     int // -1 before first, len(rows) after last
	current primitives.RowID
}

var _ cursor.Cursor = (*Cursor)(nil)
var _ cursor.Searcher = (*Cursor)(nil)
var _ cursor.Counter = (*Cursor)(nil)
var _ cursor.Bookmarker = (*Cursor)(nil)

// Cursor opens a new cursor over the table. The returned cursor must be
// opened before use.
func (t *MemoryTable) Cursor() *Cursor {
	c := &Cursor{table: t, pos: -1, current: primitives.InvalidRowID}
	c.Base = cursor.NewBase("table:"+t.Name(), t.tableVar, cursor.All, c.readNext, c.rewind)
	c.Navigator.SetPrior(c.readPrior)
	return c
}

// Table returns the underlying table.
func (c *Cursor) Table() *MemoryTable {
	return c.table
}

// resync finds the current row again after the table changed underneath.
// It reports false when the current row has been deleted, in which case pos
// already addresses the row that followed it.
func (c *Cursor) resync() bool {
	if c.current == primitives.InvalidRowID {
		return true
	}
	if c.pos >= 0 && c.pos < len(c.table.rows) && c.table.rows[c.pos].id == c.current {
		return true
	}
	if idx := c.table.indexOfID(c.current); idx >= 0 {
		c.pos = idx
		return true
	}
	return false
}

func (c *Cursor) at(i int) *tuple.Tuple {
	c.pos = i
	c.current = c.table.rows[i].id
	return c.table.rows[i].row
}

func (c *Cursor) readNext() (*tuple.Tuple, error) {
	c.table.mutex.RLock()
	defer c.table.mutex.RUnlock()

	next := c.pos + 1
	if !c.resync() {
		next = c.pos
	}
	if next >= len(c.table.rows) {
		c.pos = len(c.table.rows)
		c.current = primitives.InvalidRowID
		return nil, nil
	}
	return c.at(next), nil
}

func (c *Cursor) readPrior() (*tuple.Tuple, error) {
	c.table.mutex.RLock()
	defer c.table.mutex.RUnlock()

	_ = c.resync()
	pos := min(c.pos, len(c.table.rows))
	if pos-1 < 0 {
		c.pos = -1
		c.current = primitives.InvalidRowID
		return nil, nil
	}
	return c.at(pos - 1), nil
}

func (c *Cursor) rewind(toEnd bool) error {
	c.table.mutex.RLock()
	defer c.table.mutex.RUnlock()

	c.current = primitives.InvalidRowID
	if toEnd {
		c.pos = len(c.table.rows)
	} else {
		c.pos = -1
	}
	return nil
}

// RowCount returns the number of rows in the table.
func (c *Cursor) RowCount() (int, error) {
	return c.table.Len(), nil
}

// FindKey positions on the row matching key by name. A key over exactly the
// clustering columns is found by binary search; other keys are scanned.
func (c *Cursor) FindKey(key *tuple.Tuple) (bool, error) {
	if !c.IsOpen() {
		return false, dberror.NewSystem(dberror.CodeCursorNotOpen, "cursor is not open").In("FindKey", c.Name())
	}

	c.table.mutex.RLock()
	defer c.table.mutex.RUnlock()

	clustering := c.table.clustering
	idx := -1
	if slices.Equal(key.TupleDesc.Names(), clustering.ColumnNames()) {
		i, found := slices.BinarySearchFunc(c.table.rows, key, func(e entry, k *tuple.Tuple) int {
			cmp, err := clustering.Compare(e.row, k)
			if err != nil {
				return -1
			}
			return cmp
		})
		if found {
			idx = i
		}
	} else {
		idx = slices.IndexFunc(c.table.rows, func(e entry) bool {
			return cursor.MatchesByName(e.row, key)
		})
	}

	if idx < 0 {
		return false, nil
	}
	c.Position(c.at(idx))
	return true, nil
}

func (c *Cursor) GetBookmark() (cursor.Bookmark, error) {
	if c.State() != cursor.OnRow {
		return primitives.InvalidRowID, dberror.NewSystem(dberror.CodeNoCurrentRow, "no row to bookmark").
			In("GetBookmark", c.Name())
	}
	return c.current, nil
}

func (c *Cursor) GotoBookmark(b cursor.Bookmark) (bool, error) {
	c.table.mutex.RLock()
	defer c.table.mutex.RUnlock()

	idx := c.table.indexOfID(b)
	if idx < 0 {
		return false, nil
	}
	c.Position(c.at(idx))
	return true, nil
}

func (c *Cursor) Insert(row *tuple.Tuple) error {
	return c.table.Insert(row)
}

func (c *Cursor) Update(oldRow, newRow *tuple.Tuple) error {
	return c.table.Update(oldRow, newRow)
}

func (c *Cursor) Delete(row *tuple.Tuple) error {
	return c.table.Delete(row)
}

func (c *Cursor) Default(row *tuple.Tuple, column string) (bool, error) {
	return c.table.Default(row, column)
}

func (c *Cursor) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	return c.table.Change(oldRow, newRow, column)
}

func (c *Cursor) Validate(oldRow, newRow *tuple.Tuple, column string, _ bool) (bool, error) {
	return c.table.Validate(oldRow, newRow, column)
}
