package table

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	dberror "relcore/pkg/error"
	"relcore/pkg/logging"
	"relcore/pkg/primitives"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// Constraint is a row-level rule checked on insert, update and validate.
type Constraint struct {
	Name  string
	Check func(row *tuple.Tuple) (bool, error)
}

// DefaultFunc produces the default value of a column.
type DefaultFunc func() types.Field

// ChangeHandler reacts to an edit of one column. It may modify newRow and
// reports whether it did.
type ChangeHandler func(oldRow, newRow *tuple.Tuple) (bool, error)

type entry struct {
	id  primitives.RowID
	row *tuple.Tuple
}

// MemoryTable is an in-memory base relation. Rows are kept clustered by the
// first key, every declared key is enforced, and the business-rule hooks
// (defaults, change handlers, constraints) are attached per table.
type MemoryTable struct {
	mutex       sync.RWMutex
	id          uuid.UUID
	tableVar    *schema.TableVar
	clustering  schema.Order
	rows        []entry
	nextID      primitives.RowID
	defaults    map[string]DefaultFunc
	changes     map[string]ChangeHandler
	constraints []Constraint
	log         *slog.Logger
}

// NewMemoryTable creates an empty table. A table without keys gets an
// all-columns key; the rows are ordered ascending by the first key.
func NewMemoryTable(tv *schema.TableVar) *MemoryTable {
	if len(tv.Keys) == 0 {
		tv.Keys = []schema.Key{{Columns: tv.ColumnNames()}}
	}
	clustering := schema.Ascending(tv.Keys[0].Columns...)
	if !tv.HasOrder(clustering) {
		tv.Orders = append([]schema.Order{clustering}, tv.Orders...)
	}

	return &MemoryTable{
		id:         uuid.New(),
		tableVar:   tv,
		clustering: clustering,
		defaults:   make(map[string]DefaultFunc),
		changes:    make(map[string]ChangeHandler),
		log:        logging.WithTable(tv.Name),
	}
}

// ID returns the identifier assigned to this table instance.
func (t *MemoryTable) ID() uuid.UUID {
	return t.id
}

// Name returns the table name.
func (t *MemoryTable) Name() string {
	return t.tableVar.Name
}

// TableVar returns the table metadata.
func (t *MemoryTable) TableVar() *schema.TableVar {
	return t.tableVar
}

// SetDefault registers the default value of column.
func (t *MemoryTable) SetDefault(column string, fn DefaultFunc) error {
	c, ok := t.tableVar.Column(column)
	if !ok {
		return dberror.NewUser(dberror.CodeColumnNotFound, "column not found").
			WithDetail("column %q in %s", column, t.Name())
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.defaults[column] = fn
	c.ShouldDefault = true
	t.tableVar.DetermineRemotable()
	return nil
}

// OnChange registers the change handler of column.
func (t *MemoryTable) OnChange(column string, handler ChangeHandler) error {
	c, ok := t.tableVar.Column(column)
	if !ok {
		return dberror.NewUser(dberror.CodeColumnNotFound, "column not found").
			WithDetail("column %q in %s", column, t.Name())
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.changes[column] = handler
	c.ShouldChange = true
	t.tableVar.DetermineRemotable()
	return nil
}

// AddConstraint registers a row constraint.
func (t *MemoryTable) AddConstraint(c Constraint) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.constraints = append(t.constraints, c)
	t.tableVar.ShouldValidate = true
}

// Len returns the number of rows.
func (t *MemoryTable) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rows)
}

// Rows returns a copy of every row in clustering order.
func (t *MemoryTable) Rows() []*tuple.Tuple {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]*tuple.Tuple, len(t.rows))
	for i, e := range t.rows {
		out[i] = e.row.Clone()
	}
	return out
}

// InsertAll inserts each row in turn, stopping at the first failure.
func (t *MemoryTable) InsertAll(rows ...*tuple.Tuple) error {
	for _, r := range rows {
		if err := t.Insert(r); err != nil {
			return err
		}
	}
	return nil
}

// Insert adds row. Columns are matched by name; columns the row lacks are
// left without a value.
func (t *MemoryTable) Insert(row *tuple.Tuple) error {
	stored, err := t.conform(row, nil)
	if err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.check(stored); err != nil {
		return err
	}
	if err := t.checkKeys(stored, primitives.InvalidRowID); err != nil {
		return err
	}

	t.nextID++
	t.place(entry{id: t.nextID, row: stored})
	t.log.Debug("row inserted", "row_id", t.nextID)
	return nil
}

// Update replaces the row whose clustering key matches oldRow. Columns
// newRow lacks keep their stored values.
func (t *MemoryTable) Update(oldRow, newRow *tuple.Tuple) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	idx, err := t.indexOfKey(oldRow)
	if err != nil {
		return err
	}
	if idx < 0 {
		return t.notFound("Update", oldRow)
	}

	e := t.rows[idx]
	stored, err := t.conform(newRow, e.row)
	if err != nil {
		return err
	}
	if err := t.check(stored); err != nil {
		return err
	}
	if err := t.checkKeys(stored, e.id); err != nil {
		return err
	}

	t.rows = slices.Delete(t.rows, idx, idx+1)
	t.place(entry{id: e.id, row: stored})
	t.log.Debug("row updated", "row_id", e.id)
	return nil
}

// Delete removes the row whose clustering key matches row.
func (t *MemoryTable) Delete(row *tuple.Tuple) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	idx, err := t.indexOfKey(row)
	if err != nil {
		return err
	}
	if idx < 0 {
		return t.notFound("Delete", row)
	}

	id := t.rows[idx].id
	t.rows = slices.Delete(t.rows, idx, idx+1)
	t.log.Debug("row deleted", "row_id", id)
	return nil
}

// Truncate removes every row.
func (t *MemoryTable) Truncate() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.rows = nil
}

// Default fills unset columns that have a registered default.
func (t *MemoryTable) Default(row *tuple.Tuple, column string) (bool, error) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	changed := false
	for name, fn := range t.defaults {
		if column != "" && column != name {
			continue
		}
		i := row.TupleDesc.IndexOf(name)
		if i < 0 || row.HasValue(i) {
			continue
		}
		if err := row.SetField(i, fn()); err != nil {
			return changed, err
		}
		changed = true
	}
	return changed, nil
}

// Change runs the change handler of column, or every handler when column is
// empty.
func (t *MemoryTable) Change(oldRow, newRow *tuple.Tuple, column string) (bool, error) {
	t.mutex.RLock()
	handlers := make(map[string]ChangeHandler, len(t.changes))
	for name, h := range t.changes {
		if column == "" || column == name {
			handlers[name] = h
		}
	}
	t.mutex.RUnlock()

	changed := false
	for _, h := range handlers {
		c, err := h(oldRow, newRow)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}

// Validate checks newRow against every constraint.
func (t *MemoryTable) Validate(_, newRow *tuple.Tuple, _ string) (bool, error) {
	stored, err := t.conform(newRow, nil)
	if err != nil {
		return false, err
	}

	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return false, t.check(stored)
}

// conform copies row by column name into the table row shape, starting from
// base when given.
func (t *MemoryTable) conform(row, base *tuple.Tuple) (*tuple.Tuple, error) {
	var stored *tuple.Tuple
	if base != nil {
		stored = base.Clone()
	} else {
		stored = tuple.NewTuple(t.tableVar.RowDesc())
	}
	if err := row.CopyTo(stored); err != nil {
		return nil, dberror.NewSystem(dberror.CodeTypeConversion, "row does not conform to table").
			WithDetail("%v", err).
			In("Insert", t.Name())
	}
	return stored, nil
}

// check runs the constraints. The caller holds the mutex.
func (t *MemoryTable) check(row *tuple.Tuple) error {
	for _, c := range t.constraints {
		ok, err := c.Check(row)
		if err != nil {
			return err
		}
		if !ok {
			return dberror.NewUser(dberror.CodeConstraintViolation, "row violates constraint").
				WithDetail("constraint %q on %s: %v", c.Name, t.Name(), row).
				In("Validate", t.Name())
		}
	}
	return nil
}

// checkKeys rejects row when another row (other than self) shares one of
// its keys. Sparse keys ignore rows with missing key values.
func (t *MemoryTable) checkKeys(row *tuple.Tuple, self primitives.RowID) error {
	desc := t.tableVar.RowDesc()
	for _, k := range t.tableVar.Keys {
		idx := k.Indexes(desc)
		if k.IsSparse && hasMissing(row, idx) {
			continue
		}
		for _, e := range t.rows {
			if e.id != self && row.EqualsOn(e.row, idx, idx) {
				return dberror.NewUser(dberror.CodeDuplicateKey, "duplicate key").
					WithDetail("%v in %s: %v", k, t.Name(), row).
					WithHint("Use Ensure propagation to update existing rows").
					In("Insert", t.Name())
			}
		}
	}
	return nil
}

func hasMissing(row *tuple.Tuple, idx []int) bool {
	for _, i := range idx {
		if !row.HasValue(i) {
			return true
		}
	}
	return false
}

// place inserts e at its clustering position, after any equal rows.
func (t *MemoryTable) place(e entry) {
	pos, _ := slices.BinarySearchFunc(t.rows, e.row, func(existing entry, target *tuple.Tuple) int {
		cmp, err := t.clustering.Compare(existing.row, target)
		if err != nil || cmp == 0 {
			return -1
		}
		return cmp
	})
	t.rows = slices.Insert(t.rows, pos, e)
}

// indexOfKey returns the position of the row whose clustering key matches
// row by name, or -1.
func (t *MemoryTable) indexOfKey(row *tuple.Tuple) (int, error) {
	key := t.tableVar.ClusteringKey()
	for _, c := range key.Columns {
		if row.TupleDesc.IndexOf(c) < 0 {
			return -1, dberror.NewUser(dberror.CodeColumnNotFound, "row lacks key column").
				WithDetail("column %q of %s", c, t.Name())
		}
	}

	for i, e := range t.rows {
		if matchesKey(e.row, row, key) {
			return i, nil
		}
	}
	return -1, nil
}

func (t *MemoryTable) indexOfID(id primitives.RowID) int {
	for i, e := range t.rows {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (t *MemoryTable) notFound(operation string, row *tuple.Tuple) error {
	return dberror.NewUser(dberror.CodeRowNotFound, "row not found").
		WithDetail("%s: %v", t.Name(), row).
		In(operation, t.Name())
}

func matchesKey(stored, row *tuple.Tuple, key schema.Key) bool {
	for _, c := range key.Columns {
		a, _ := stored.FieldByName(c)
		b, _ := row.FieldByName(c)
		if !types.FieldsEqual(a, b) {
			return false
		}
	}
	return true
}
