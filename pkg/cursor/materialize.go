package cursor

import (
	dberror "relcore/pkg/error"
	"relcore/pkg/primitives"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Materialized buffers every row of its source when opened and serves them
// as a static, fully navigable, countable, bookmarkable and searchable
// cursor. Mutations are forwarded to the source and the buffer is refreshed.
type Materialized struct {
	*Base
	rows    []*tuple.Tuple
	pos     int // index of the current row; -1 before first, len(rows) after last
	arrange func([]*tuple.Tuple) error
}

var _ Searcher = (*Materialized)(nil)
var _ Counter = (*Materialized)(nil)
var _ Bookmarker = (*Materialized)(nil)

// Materialize wraps source in a static cursor.
func Materialize(source Cursor) *Materialized {
	return NewMaterialized("materialize", source, source.TableVar(), nil)
}

// NewMaterialized wraps source in a static cursor described by tv. arrange,
// when given, may reorder the buffered rows each time they are loaded.
func NewMaterialized(name string, source Cursor, tv *schema.TableVar, arrange func([]*tuple.Tuple) error) *Materialized {
	caps := Navigable | BackwardsNavigable | Bookmarkable | Searchable | Countable
	caps |= source.Capabilities() & (Updateable | Elaborable)

	m := &Materialized{arrange: arrange}
	m.Base = NewBase(name, tv, caps, m.readNext, m.rewind, source)
	m.Base.SetCursorType(Static)
	m.Navigator.SetPrior(m.readPrior)
	return m
}

// Open opens the source and buffers its rows.
func (m *Materialized) Open() error {
	return m.OpenWith(m.load)
}

func (m *Materialized) load() error {
	rows, err := Collect(m.Source(0))
	if err != nil {
		return err
	}
	if m.arrange != nil {
		if err := m.arrange(rows); err != nil {
			return err
		}
	}
	m.rows = rows
	m.pos = -1
	return nil
}

func (m *Materialized) readNext() (*tuple.Tuple, error) {
	if m.pos < len(m.rows) {
		m.pos++
	}
	if m.pos >= len(m.rows) {
		return nil, nil
	}
	return m.rows[m.pos], nil
}

func (m *Materialized) readPrior() (*tuple.Tuple, error) {
	if m.pos >= 0 {
		m.pos--
	}
	if m.pos < 0 {
		return nil, nil
	}
	return m.rows[m.pos], nil
}

func (m *Materialized) rewind(toEnd bool) error {
	if toEnd {
		m.pos = len(m.rows)
	} else {
		m.pos = -1
	}
	return nil
}

// Reset re-reads the source.
func (m *Materialized) Reset() error {
	if err := m.load(); err != nil {
		return err
	}
	return m.First()
}

// RowCount returns the number of buffered rows.
func (m *Materialized) RowCount() (int, error) {
	return len(m.rows), nil
}

// FindKey scans the buffer for a row matching key by name.
func (m *Materialized) FindKey(key *tuple.Tuple) (bool, error) {
	for i, row := range m.rows {
		if MatchesByName(row, key) {
			m.pos = i
			m.Position(row)
			return true, nil
		}
	}
	return false, nil
}

func (m *Materialized) GetBookmark() (Bookmark, error) {
	if m.State() != OnRow {
		return primitives.InvalidRowID, dberror.NewSystem(dberror.CodeNoCurrentRow, "no row to bookmark").
			In("GetBookmark", "Materialized")
	}
	return Bookmark(m.pos), nil
}

func (m *Materialized) GotoBookmark(b Bookmark) (bool, error) {
	if b == primitives.InvalidRowID || int(b) >= len(m.rows) {
		return false, nil
	}
	m.pos = int(b)
	m.Position(m.rows[m.pos])
	return true, nil
}

func (m *Materialized) refresh(mutation error) error {
	if mutation != nil {
		return mutation
	}
	pos := m.pos
	if err := m.load(); err != nil {
		return err
	}
	switch m.State() {
	case AfterLast:
		m.pos = len(m.rows)
	case OnRow:
		m.pos = min(pos, len(m.rows)-1)
		if m.pos < 0 {
			return m.First()
		}
		m.Position(m.rows[m.pos])
	}
	return nil
}

func (m *Materialized) Insert(row *tuple.Tuple) error {
	if err := m.RequireUpdateable("Insert"); err != nil {
		return err
	}
	return m.refresh(m.Source(0).Insert(row))
}

func (m *Materialized) Update(oldRow, newRow *tuple.Tuple) error {
	if err := m.RequireUpdateable("Update"); err != nil {
		return err
	}
	return m.refresh(m.Source(0).Update(oldRow, newRow))
}

func (m *Materialized) Delete(row *tuple.Tuple) error {
	if err := m.RequireUpdateable("Delete"); err != nil {
		return err
	}
	return m.refresh(m.Source(0).Delete(row))
}

func (m *Materialized) Default(row *tuple.Tuple, column string) (bool, error) {
	return m.Source(0).Default(row, column)
}

func (m *Materialized) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	return m.Source(0).Change(oldRow, newRow, column)
}

func (m *Materialized) Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error) {
	return m.Source(0).Validate(oldRow, newRow, column, isDescending)
}

// materializable is what a Materialized wrapper can add on top of a source.
const materializable = Navigable | BackwardsNavigable | Bookmarkable | Searchable | Countable

// Satisfy returns c unchanged when it already provides what req asks for,
// and a materializing wrapper otherwise. It is called once, when the plan is
// bound.
func Satisfy(c Cursor, req Request) Cursor {
	missing := req.Capabilities &^ c.Capabilities() & materializable
	if missing == 0 && !(req.CursorType == Static && c.CursorType() == Dynamic) {
		return c
	}
	return Materialize(c)
}
