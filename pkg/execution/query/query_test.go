package query

import (
	"slices"
	"testing"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/schema"
	"relcore/pkg/table"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newItemsTable(t *testing.T) *table.MemoryTable {
	t.Helper()
	tv := schema.MustTableVar("items", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("label", types.StringType),
	})
	tv.Keys = []schema.Key{{Columns: []string{"id", "label"}}}
	return table.NewMemoryTable(tv)
}

func newNodesTable(t *testing.T) *table.MemoryTable {
	t.Helper()
	tv := schema.MustTableVar("nodes", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("parent", types.IntType),
		schema.NewColumn("name", types.StringType),
	})
	tv.Keys = []schema.Key{{Columns: []string{"id"}}}
	return table.NewMemoryTable(tv)
}

func item(tbl *table.MemoryTable, id int64, label string) *tuple.Tuple {
	return tuple.NewBuilder(tbl.TableVar().RowDesc()).AddInt(id).AddString(label).MustBuild()
}

func node(tbl *table.MemoryTable, id int64, parent int64, name string) *tuple.Tuple {
	b := tuple.NewBuilder(tbl.TableVar().RowDesc()).AddInt(id)
	if parent == 0 {
		b.AddNil()
	} else {
		b.AddInt(parent)
	}
	return b.AddString(name).MustBuild()
}

func mustInsert(t *testing.T, tbl *table.MemoryTable, rows ...*tuple.Tuple) {
	t.Helper()
	if err := tbl.InsertAll(rows...); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

func mustOpen(t *testing.T, c cursor.Cursor) {
	t.Helper()
	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
}

func mustCollect(t *testing.T, c cursor.Cursor) []*tuple.Tuple {
	t.Helper()
	rows, err := cursor.Collect(c)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	return rows
}

func intsOf(t *testing.T, rows []*tuple.Tuple, column string) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		f, err := r.FieldByName(column)
		if err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
		out[i] = f.(*types.IntField).Value
	}
	return out
}

func equalInts(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================================
// PROJECT TESTS
// ============================================================================

func TestProject_CollapsesDuplicatesWhenNoKeySurvives(t *testing.T) {
	tbl := newItemsTable(t)
	mustInsert(t, tbl, item(tbl, 1, "a"), item(tbl, 2, "b"), item(tbl, 2, "c"))

	p, err := NewProject(cursor.DefaultRequest(), tbl.Cursor(), []string{"id"})
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if !p.IsDistinct() {
		t.Error("projection without a surviving key should be distinct")
	}
	if !p.TableVar().IsDistinctRequired {
		t.Error("result should be marked distinct-required")
	}
	mustOpen(t, p)

	got := intsOf(t, mustCollect(t, p), "id")
	if !equalInts(got, []int64{1, 2}) {
		t.Errorf("expected [1 2], got %v", got)
	}
}

func TestProject_KeySurvives(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "root"), node(tbl, 2, 1, "child"))

	p, err := NewProject(cursor.DefaultRequest(), tbl.Cursor(), []string{"name", "id"})
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if p.IsDistinct() {
		t.Error("projection keeping the key should not deduplicate")
	}
	if got := p.TableVar().ColumnNames(); got[0] != "name" || got[1] != "id" {
		t.Errorf("columns should follow the requested order, got %v", got)
	}
	if !p.Supports(cursor.Searchable) || !p.Supports(cursor.Countable) {
		t.Errorf("pass-through capabilities lost: %v", p.Capabilities())
	}
	mustOpen(t, p)

	n, err := p.RowCount()
	if err != nil || n != 2 {
		t.Errorf("RowCount = %d, %v", n, err)
	}
}

func TestProject_UnknownColumn(t *testing.T) {
	tbl := newItemsTable(t)
	_, err := NewProject(cursor.DefaultRequest(), tbl.Cursor(), []string{"missing"})
	if !dberror.HasCode(err, dberror.CodeColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}
}

func TestProject_InsertFillsRemovedColumnsByDefault(t *testing.T) {
	tbl := newNodesTable(t)
	if err := tbl.SetDefault("name", func() types.Field {
		return types.NewStringField("unnamed")
	}); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	p, err := NewRemove(cursor.DefaultRequest(), tbl.Cursor(), []string{"name"})
	if err != nil {
		t.Fatalf("NewRemove failed: %v", err)
	}
	mustOpen(t, p)

	row := tuple.NewBuilder(p.TableVar().RowDesc()).AddInt(7).AddNil().MustBuild()
	if err := p.Insert(row); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	stored := tbl.Rows()
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored row, got %d", len(stored))
	}
	name, _ := stored[0].FieldByName("name")
	if name == nil || name.String() != "unnamed" {
		t.Errorf("removed column should be defaulted, got %v", name)
	}
}

func TestProject_DeleteRemovesEveryMatchingSourceRow(t *testing.T) {
	tbl := newItemsTable(t)
	mustInsert(t, tbl, item(tbl, 1, "a"), item(tbl, 2, "b"), item(tbl, 2, "c"))

	p, err := NewProject(cursor.DefaultRequest(), tbl.Cursor(), []string{"id"})
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	mustOpen(t, p)

	victim := tuple.NewBuilder(p.TableVar().RowDesc()).AddInt(2).MustBuild()
	if err := p.Delete(victim); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("expected 1 remaining row, got %d", tbl.Len())
	}
	if err := p.Delete(victim); !dberror.HasCode(err, dberror.CodeRowNotFound) {
		t.Errorf("expected row not found on second delete, got %v", err)
	}
}

// ============================================================================
// RENAME TESTS
// ============================================================================

// sameMetadata compares two table vars column by column, key by key and
// order by order. Inheritance marks are provenance and are not compared.
func sameMetadata(t *testing.T, got, want *schema.TableVar) {
	t.Helper()
	if !slices.Equal(got.Columns, want.Columns) {
		t.Errorf("columns differ:\n got  %+v\n want %+v", got.Columns, want.Columns)
	}
	if len(got.Keys) != len(want.Keys) {
		t.Fatalf("keys differ: %v vs %v", got.Keys, want.Keys)
	}
	for i := range want.Keys {
		if !slices.Equal(got.Keys[i].Columns, want.Keys[i].Columns) || got.Keys[i].IsSparse != want.Keys[i].IsSparse {
			t.Errorf("key %d: %v vs %v", i, got.Keys[i], want.Keys[i])
		}
	}
	if len(got.Orders) != len(want.Orders) {
		t.Fatalf("orders differ: %v vs %v", got.Orders, want.Orders)
	}
	for i := range want.Orders {
		if got.Orders[i].String() != want.Orders[i].String() {
			t.Errorf("order %d: %v vs %v", i, got.Orders[i], want.Orders[i])
		}
	}
	if got.IsDistinctRequired != want.IsDistinctRequired {
		t.Errorf("IsDistinctRequired = %v, expected %v", got.IsDistinctRequired, want.IsDistinctRequired)
	}
	if got.ShouldDefault != want.ShouldDefault || got.ShouldChange != want.ShouldChange || got.ShouldValidate != want.ShouldValidate {
		t.Errorf("table rule flags differ: %+v vs %+v", got, want)
	}
}

func TestRename_RoundTrip(t *testing.T) {
	parent := schema.NewColumn("parent", types.IntType)
	parent.IsNilable = true
	name := schema.NewColumn("name", types.StringType)
	name.ShouldValidate = true
	tv := schema.MustTableVar("nodes", []schema.Column{schema.NewColumn("id", types.IntType), parent, name})
	tv.Keys = []schema.Key{{Columns: []string{"id"}}, {Columns: []string{"name"}}}
	tv.Orders = []schema.Order{schema.Descending("name")}
	tbl := table.NewMemoryTable(tv)
	mustInsert(t, tbl, node(tbl, 1, 0, "root"), node(tbl, 2, 1, "child"))
	req := cursor.DefaultRequest()

	there, err := NewRename(req, tbl.Cursor(), []RenamePair{{From: "id", To: "node_id"}, {From: "name", To: "label"}})
	if err != nil {
		t.Fatalf("NewRename failed: %v", err)
	}
	if got := there.TableVar().ColumnNames(); !slices.Equal(got, []string{"node_id", "parent", "label"}) {
		t.Errorf("renamed columns = %v", got)
	}
	back, err := NewRename(req, there, []RenamePair{{From: "node_id", To: "id"}, {From: "label", To: "name"}})
	if err != nil {
		t.Fatalf("NewRename failed: %v", err)
	}
	mustOpen(t, back)

	sameMetadata(t, back.TableVar(), tbl.TableVar())
	if back.Capabilities() != there.Capabilities() {
		t.Errorf("capabilities changed: %v vs %v", back.Capabilities(), there.Capabilities())
	}

	rows := mustCollect(t, back)
	if len(rows) != tbl.Len() {
		t.Fatalf("expected %d rows, got %d", tbl.Len(), len(rows))
	}
	for i, r := range tbl.Rows() {
		if !rows[i].Equals(r) {
			t.Errorf("row %d: %v != %v", i, rows[i], r)
		}
	}
}

func TestRename_Errors(t *testing.T) {
	tbl := newNodesTable(t)
	req := cursor.DefaultRequest()

	_, err := NewRename(req, tbl.Cursor(), []RenamePair{{From: "nope", To: "x"}})
	if !dberror.HasCode(err, dberror.CodeColumnNotFound) {
		t.Errorf("expected column not found, got %v", err)
	}
	_, err = NewRename(req, tbl.Cursor(), []RenamePair{{From: "id", To: "name"}})
	if !dberror.HasCode(err, dberror.CodeDuplicateRenameTarget) {
		t.Errorf("expected duplicate rename target, got %v", err)
	}
}

func TestRename_PrefixAndSearch(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "root"), node(tbl, 2, 1, "child"))

	r, err := NewRenameAll(cursor.DefaultRequest(), tbl.Cursor(), "n")
	if err != nil {
		t.Fatalf("NewRenameAll failed: %v", err)
	}
	if !r.TableVar().HasColumn("n.parent") {
		t.Fatalf("expected qualified columns, got %v", r.TableVar().ColumnNames())
	}
	mustOpen(t, r)

	key := tuple.NewBuilder(tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"n.id"})).AddInt(2).MustBuild()
	found, err := r.FindKey(key)
	if err != nil || !found {
		t.Fatalf("FindKey = %v, %v", found, err)
	}
	row, _ := r.Select()
	name, _ := row.FieldByName("n.name")
	if name.String() != "child" {
		t.Errorf("located wrong row: %v", row)
	}
}

func TestRename_UpdateWritesThrough(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "root"))

	r, err := NewRename(cursor.DefaultRequest(), tbl.Cursor(), []RenamePair{{From: "name", To: "title"}})
	if err != nil {
		t.Fatalf("NewRename failed: %v", err)
	}
	mustOpen(t, r)
	if ok, err := r.Next(); !ok || err != nil {
		t.Fatalf("Next = %v, %v", ok, err)
	}
	updated, _ := r.Select()
	_ = updated.SetFieldByName("title", types.NewStringField("top"))
	if err := cursor.UpdateCurrent(r, updated); err != nil {
		t.Fatalf("UpdateCurrent failed: %v", err)
	}
	name, _ := tbl.Rows()[0].FieldByName("name")
	if name.String() != "top" {
		t.Errorf("update did not reach the table: %v", name)
	}
}

// ============================================================================
// RESTRICT TESTS
// ============================================================================

func TestRestrict_FiltersAndKeepsKeys(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "a"), node(tbl, 2, 1, "b"), node(tbl, 3, 1, "c"))

	r, err := NewRestrict(cursor.DefaultRequest(), tbl.Cursor(), func(row *tuple.Tuple) (bool, error) {
		return row.Field(1) != nil, nil
	})
	if err != nil {
		t.Fatalf("NewRestrict failed: %v", err)
	}
	if r.Supports(cursor.Countable) || r.Supports(cursor.Bookmarkable) {
		t.Errorf("restriction should drop counting and bookmarks: %v", r.Capabilities())
	}
	if !r.TableVar().ClusteringKey().Equivalent(schema.Key{Columns: []string{"id"}}) {
		t.Errorf("key should survive: %v", r.TableVar().Keys)
	}
	mustOpen(t, r)

	if got := intsOf(t, mustCollect(t, r), "id"); !equalInts(got, []int64{2, 3}) {
		t.Errorf("expected [2 3], got %v", got)
	}

	if ok, err := r.Prior(); !ok || err != nil {
		t.Fatalf("Prior = %v, %v", ok, err)
	}
	row, _ := r.Select()
	if id := row.Field(0).(*types.IntField).Value; id != 3 {
		t.Errorf("Prior from the end should land on 3, got %d", id)
	}
}

func TestRowRestrict_FindKeyRespectsPredicate(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "a"), node(tbl, 2, 1, "b"))

	pattern := tuple.NewBuilder(tuple.MustTupleDesc([]types.Type{types.StringType}, []string{"name"})).AddString("b").MustBuild()
	r, err := NewRowRestrict(cursor.DefaultRequest(), tbl.Cursor(), pattern)
	if err != nil {
		t.Fatalf("NewRowRestrict failed: %v", err)
	}
	mustOpen(t, r)

	key := tuple.NewBuilder(tuple.MustTupleDesc([]types.Type{types.IntType}, []string{"id"})).AddInt(1).MustBuild()
	if found, err := r.FindKey(key); found || err != nil {
		t.Errorf("row outside the restriction was found: %v, %v", found, err)
	}
	key = tuple.NewBuilder(key.TupleDesc).AddInt(2).MustBuild()
	if found, err := r.FindKey(key); !found || err != nil {
		t.Errorf("row inside the restriction not found: %v, %v", found, err)
	}
}

// ============================================================================
// QUOTA TESTS
// ============================================================================

func newNumbersTable(t *testing.T, values ...int64) *table.MemoryTable {
	t.Helper()
	tv := schema.MustTableVar("numbers", []schema.Column{schema.NewColumn("id", types.IntType)})
	tv.Keys = []schema.Key{{Columns: []string{"id"}}}
	tbl := table.NewMemoryTable(tv)
	for _, v := range values {
		mustInsert(t, tbl, tuple.NewBuilder(tv.RowDesc()).AddInt(v).MustBuild())
	}
	return tbl
}

func TestQuota_TopByDescendingOrder(t *testing.T) {
	tbl := newNumbersTable(t, 1, 2, 3, 4)

	q, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Descending("id"), 2)
	if err != nil {
		t.Fatalf("NewQuota failed: %v", err)
	}
	mustOpen(t, q)

	if got := intsOf(t, mustCollect(t, q), "id"); !equalInts(got, []int64{4, 3}) {
		t.Errorf("expected [4 3], got %v", got)
	}
	if ok, err := q.Next(); ok || err != nil {
		t.Errorf("Next past the quota = %v, %v", ok, err)
	}
}

func TestQuota_RowCounts(t *testing.T) {
	tests := []struct {
		name  string
		rows  []int64
		count int
		want  []int64
	}{
		{"fewer rows than quota", []int64{5, 3}, 4, []int64{3, 5}},
		{"zero quota", []int64{1, 2}, 0, []int64{}},
		{"exact", []int64{2, 1, 3}, 3, []int64{1, 2, 3}},
		{"empty source", nil, 2, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newNumbersTable(t, tt.rows...)
			q, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Ascending("id"), tt.count)
			if err != nil {
				t.Fatalf("NewQuota failed: %v", err)
			}
			mustOpen(t, q)
			if got := intsOf(t, mustCollect(t, q), "id"); !equalInts(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestQuota_SingletonKey(t *testing.T) {
	tbl := newNumbersTable(t, 1)
	q, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Ascending("id"), 1)
	if err != nil {
		t.Fatalf("NewQuota failed: %v", err)
	}
	if !q.TableVar().IsSingleton() {
		t.Errorf("quota of one over a key order should have an empty key: %v", q.TableVar().Keys)
	}
}

func TestQuota_NegativeCount(t *testing.T) {
	tbl := newNumbersTable(t)
	_, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Ascending("id"), -1)
	if !dberror.HasCode(err, dberror.CodeInvalidOperatorArguments) {
		t.Errorf("expected invalid arguments, got %v", err)
	}
}

func TestQuota_EnforcePredicate(t *testing.T) {
	tbl := newNumbersTable(t, 10, 20, 30)
	q, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Ascending("id"), 2)
	if err != nil {
		t.Fatalf("NewQuota failed: %v", err)
	}
	mustOpen(t, q)
	desc := q.TableVar().RowDesc()

	err = q.Insert(tuple.NewBuilder(desc).AddInt(25).MustBuild())
	if !dberror.HasCode(err, dberror.CodeRowViolatesQuotaPredicate) {
		t.Errorf("expected quota violation, got %v", err)
	}
	if tbl.Len() != 3 {
		t.Errorf("rejected row must not be stored")
	}

	if err := q.Insert(tuple.NewBuilder(desc).AddInt(5).MustBuild()); err != nil {
		t.Errorf("row inside the quota rejected: %v", err)
	}

	q.EnforcePredicate = false
	if err := q.Insert(tuple.NewBuilder(desc).AddInt(99).MustBuild()); err != nil {
		t.Errorf("unenforced insert failed: %v", err)
	}
	if tbl.Len() != 5 {
		t.Errorf("expected 5 rows, got %d", tbl.Len())
	}
}

func TestQuota_EnforcePredicateTieAtBoundary(t *testing.T) {
	tbl := newItemsTable(t)
	mustInsert(t, tbl, item(tbl, 1, "a"), item(tbl, 2, "b"), item(tbl, 3, "c"), item(tbl, 4, "d"))

	q, err := NewQuota(cursor.DefaultRequest(), tbl.Cursor(), schema.Descending("id"), 2)
	if err != nil {
		t.Fatalf("NewQuota failed: %v", err)
	}
	mustOpen(t, q)

	err = q.Insert(item(tbl, 3, "zz"))
	if !dberror.HasCode(err, dberror.CodeRowViolatesQuotaPredicate) {
		t.Fatalf("row tied with the last quota row should be rejected, got %v", err)
	}
	if tbl.Len() != 4 {
		t.Errorf("rejected row must not be stored, got %d rows", tbl.Len())
	}

	if err := q.Insert(item(tbl, 5, "e")); err != nil {
		t.Fatalf("row ahead of the quota rejected: %v", err)
	}
	rows := mustCollect(t, q)
	if len(rows) != 2 || !types.FieldsEqual(rows[0].Field(0), types.NewIntField(5)) {
		t.Errorf("accepted row should lead the quota, got %v", rows)
	}
}

// ============================================================================
// EXPLODE TESTS
// ============================================================================

func isRoot(row *tuple.Tuple) (bool, error) {
	return row.Field(1) == nil, nil
}

func TestExplode_DepthFirst(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl,
		node(tbl, 1, 0, "root"),
		node(tbl, 2, 1, "a"),
		node(tbl, 3, 2, "a1"),
		node(tbl, 4, 1, "b"),
		node(tbl, 5, 0, "other"),
	)

	e, err := NewExplode(cursor.DefaultRequest(), tbl.Cursor(), ExplodeOptions{
		Root:        isRoot,
		Links:       []Correspondence{{Parent: "id", Child: "parent"}},
		Order:       schema.Ascending("id"),
		LevelColumn: "level",
	})
	if err != nil {
		t.Fatalf("NewExplode failed: %v", err)
	}
	if !e.TableVar().ClusteringKey().Equivalent(schema.Key{Columns: []string{"sequence"}}) {
		t.Errorf("expected sequence key, got %v", e.TableVar().Keys)
	}
	mustOpen(t, e)

	rows := mustCollect(t, e)
	if got := intsOf(t, rows, "id"); !equalInts(got, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("visit order %v", got)
	}
	if got := intsOf(t, rows, "level"); !equalInts(got, []int64{1, 2, 3, 2, 1}) {
		t.Errorf("levels %v", got)
	}
	if got := intsOf(t, rows, "sequence"); !equalInts(got, []int64{1, 2, 3, 4, 5}) {
		t.Errorf("sequence %v", got)
	}

	// A second pass restarts the sequence.
	if got := intsOf(t, mustCollect(t, e), "sequence"); got[0] != 1 {
		t.Errorf("sequence did not restart: %v", got)
	}
}

func TestExplode_SequenceNameAvoidsCollision(t *testing.T) {
	tv := schema.MustTableVar("t", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("parent", types.IntType),
		schema.NewColumn("sequence", types.IntType),
	})
	tbl := table.NewMemoryTable(tv)

	e, err := NewExplode(cursor.DefaultRequest(), tbl.Cursor(), ExplodeOptions{
		Root:  isRoot,
		Links: []Correspondence{{Parent: "id", Child: "parent"}},
	})
	if err != nil {
		t.Fatalf("NewExplode failed: %v", err)
	}
	if !e.TableVar().HasColumn("sequence1") {
		t.Errorf("expected synthetic sequence1 column, got %v", e.TableVar().ColumnNames())
	}
}

func TestExplode_Cycle(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl,
		node(tbl, 1, 0, "root"),
		node(tbl, 2, 1, "a"),
		node(tbl, 3, 2, "b"),
	)
	fromTwo := func(row *tuple.Tuple) (bool, error) {
		id := row.Field(0).(*types.IntField).Value
		return id == 2, nil
	}
	// Walking upwards from 2 reaches 1, which has no parent.
	links := []Correspondence{{Parent: "parent", Child: "id"}}
	e, err := NewExplode(cursor.DefaultRequest(), tbl.Cursor(), ExplodeOptions{Root: fromTwo, Links: links})
	if err != nil {
		t.Fatalf("NewExplode failed: %v", err)
	}
	mustOpen(t, e)
	if got := intsOf(t, mustCollect(t, e), "id"); !equalInts(got, []int64{2, 1}) {
		t.Fatalf("upward walk %v", got)
	}

	selfTbl := newNodesTable(t)
	mustInsert(t, selfTbl, node(selfTbl, 1, 0, "root"), node(selfTbl, 7, 7, "loop"))
	e, err = NewExplode(cursor.DefaultRequest(), selfTbl.Cursor(), ExplodeOptions{
		Root:  func(row *tuple.Tuple) (bool, error) { return row.Field(0).(*types.IntField).Value == 7, nil },
		Links: []Correspondence{{Parent: "id", Child: "parent"}},
	})
	if err != nil {
		t.Fatalf("NewExplode failed: %v", err)
	}
	mustOpen(t, e)
	if _, err := cursor.Collect(e); !dberror.HasCode(err, dberror.CodeExplodeCycle) {
		t.Errorf("expected explode cycle, got %v", err)
	}
}

func TestExplode_UpdateStripsComputedColumns(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "root"))

	e, err := NewExplode(cursor.DefaultRequest(), tbl.Cursor(), ExplodeOptions{
		Root:        isRoot,
		Links:       []Correspondence{{Parent: "id", Child: "parent"}},
		LevelColumn: "level",
	})
	if err != nil {
		t.Fatalf("NewExplode failed: %v", err)
	}
	mustOpen(t, e)
	if ok, _ := e.Next(); !ok {
		t.Fatal("expected a row")
	}
	row, _ := e.Select()
	_ = row.SetFieldByName("name", types.NewStringField("renamed"))
	if err := cursor.UpdateCurrent(e, row); err != nil {
		t.Fatalf("UpdateCurrent failed: %v", err)
	}
	name, _ := tbl.Rows()[0].FieldByName("name")
	if name.String() != "renamed" {
		t.Errorf("update not applied: %v", name)
	}
}

// ============================================================================
// SORT TESTS
// ============================================================================

func TestSort_OrdersAndDeclaresOrder(t *testing.T) {
	tbl := newNodesTable(t)
	mustInsert(t, tbl, node(tbl, 1, 0, "c"), node(tbl, 2, 0, "a"), node(tbl, 3, 0, "b"))

	s, err := NewSort(cursor.DefaultRequest(), tbl.Cursor(), schema.Ascending("name"))
	if err != nil {
		t.Fatalf("NewSort failed: %v", err)
	}
	if !s.TableVar().HasOrder(schema.Ascending("name")) {
		t.Error("sort should declare its order")
	}
	if s.CursorType() != cursor.Static {
		t.Error("sort should be static")
	}
	mustOpen(t, s)

	if got := intsOf(t, mustCollect(t, s), "id"); !equalInts(got, []int64{2, 3, 1}) {
		t.Errorf("expected [2 3 1], got %v", got)
	}
}
