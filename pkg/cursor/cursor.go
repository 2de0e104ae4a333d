package cursor

import (
	"relcore/pkg/primitives"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Cursor is the contract every base and derived relation exposes to its
// caller. Rows are pulled with Next and read with Select; mutations descend
// into sources according to each operator's propagation policy.
//
// A freshly opened cursor sits before the first row. First and Last move to
// the before-first and after-last cracks. Next at the end keeps returning
// false. Select is only valid while positioned on a row.
type Cursor interface {
	Open() error
	Close() error

	TableVar() *schema.TableVar
	Capabilities() Capability
	Supports(c Capability) bool
	CursorType() CursorType

	Reset() error
	First() error
	Last() error
	Next() (bool, error)
	Prior() (bool, error)
	BOF() bool
	EOF() bool

	// Select returns a copy of the current row owned by the caller.
	Select() (*tuple.Tuple, error)

	Insert(row *tuple.Tuple) error
	// Update replaces the row matching oldRow by key with newRow.
	Update(oldRow, newRow *tuple.Tuple) error
	Delete(row *tuple.Tuple) error

	// Default fills default values into row for column, or for every column
	// when column is empty. It reports whether row changed.
	Default(row *tuple.Tuple, column string) (bool, error)

	// Change applies change handlers for an edit of column.
	Change(oldRow, newRow *tuple.Tuple, column string) (bool, error)

	// Validate checks newRow against business rules. isDescending is set when
	// the call travels from the outer relation into its sources.
	Validate(oldRow, newRow *tuple.Tuple, column string, isDescending bool) (bool, error)
}

// Searcher is implemented by cursors that can position on a key directly.
type Searcher interface {
	// FindKey positions on the row whose key columns equal those of key.
	// key is resolved by column name.
	FindKey(key *tuple.Tuple) (bool, error)
}

// Counter is implemented by cursors that know their row count without
// iterating.
type Counter interface {
	RowCount() (int, error)
}

// Bookmark identifies a row position within one cursor.
type Bookmark = primitives.RowID

// Bookmarker is implemented by cursors that can return to a saved position.
type Bookmarker interface {
	GetBookmark() (Bookmark, error)
	GotoBookmark(b Bookmark) (bool, error)
}
