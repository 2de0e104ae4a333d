package cursor

import (
	"log/slog"

	dberror "relcore/pkg/error"
	"relcore/pkg/logging"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
)

// Base provides the lifecycle shared by derived cursors: owning the source
// cursors, opening them before local setup, and closing them on every exit
// path. Operators embed Base and implement their read functions and
// mutation hooks.
type Base struct {
	*Navigator
	name       string
	tableVar   *schema.TableVar
	caps       Capability
	cursorType CursorType
	sources    []Cursor
	log        *slog.Logger
}

// NewBase creates a base for an operator with the given metadata and sources.
func NewBase(name string, tv *schema.TableVar, caps Capability, next ReadFunc, rewind RewindFunc, sources ...Cursor) *Base {
	return &Base{
		Navigator:  NewNavigator(next, rewind),
		name:       name,
		tableVar:   tv,
		caps:       caps,
		cursorType: Dynamic,
		sources:    sources,
		log:        logging.WithOperator(name),
	}
}

// Name returns the operator name used in logs and errors.
func (b *Base) Name() string {
	return b.name
}

// Logger returns the operator-scoped logger.
func (b *Base) Logger() *slog.Logger {
	return b.log
}

func (b *Base) TableVar() *schema.TableVar {
	return b.tableVar
}

func (b *Base) Capabilities() Capability {
	return b.caps
}

func (b *Base) Supports(c Capability) bool {
	return b.caps.Has(c)
}

func (b *Base) CursorType() CursorType {
	return b.cursorType
}

// SetCursorType overrides the default dynamic cursor type.
func (b *Base) SetCursorType(t CursorType) {
	b.cursorType = t
}

// Source returns the ith source cursor.
func (b *Base) Source(i int) Cursor {
	return b.sources[i]
}

// Sources returns every source cursor in open order.
func (b *Base) Sources() []Cursor {
	return b.sources
}

// Open opens the sources and positions before the first row.
func (b *Base) Open() error {
	return b.OpenWith(nil)
}

// OpenWith opens the sources, runs setup, then positions before the first
// row. If setup or positioning fails, the sources are closed before the
// error is returned.
func (b *Base) OpenWith(setup func() error) error {
	if err := OpenAll(b.sources...); err != nil {
		return err
	}

	if setup != nil {
		if err := setup(); err != nil {
			_ = CloseAll(b.sources...)
			return err
		}
	}

	if err := b.Navigator.Start(); err != nil {
		_ = CloseAll(b.sources...)
		return err
	}

	b.log.Debug("cursor opened", "capabilities", b.caps.String())
	return nil
}

// Close closes the sources. Closing a cursor that is not open does nothing.
func (b *Base) Close() error {
	if !b.IsOpen() {
		return nil
	}
	b.Navigator.Stop()
	b.log.Debug("cursor closed")
	return CloseAll(b.sources...)
}

// RequireUpdateable fails unless the cursor was derived as updateable.
func (b *Base) RequireUpdateable(operation string) error {
	if !b.caps.Has(Updateable) {
		return dberror.NewSystem(dberror.CodeNotUpdateable, "cursor is not updateable").In(operation, b.name)
	}
	return nil
}

// ReadOnly is embedded by operators whose results cannot be modified.
type ReadOnly struct {
	Operator string
}

func (r ReadOnly) fail(operation string) error {
	return dberror.NewSystem(dberror.CodeNotUpdateable, "operator result is read-only").In(operation, r.Operator)
}

func (r ReadOnly) Insert(*tuple.Tuple) error {
	return r.fail("Insert")
}

func (r ReadOnly) Update(_, _ *tuple.Tuple) error {
	return r.fail("Update")
}

func (r ReadOnly) Delete(*tuple.Tuple) error {
	return r.fail("Delete")
}

func (r ReadOnly) Default(*tuple.Tuple, string) (bool, error) {
	return false, nil
}

func (r ReadOnly) Change(_, _ *tuple.Tuple, _ string) (bool, error) {
	return false, nil
}

func (r ReadOnly) Validate(_, _ *tuple.Tuple, _ string, _ bool) (bool, error) {
	return false, nil
}
