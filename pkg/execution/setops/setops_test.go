package setops

import (
	"slices"
	"testing"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/propagate"
	"relcore/pkg/schema"
	"relcore/pkg/table"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newValuesTable(t *testing.T, name string, values ...int64) *table.MemoryTable {
	t.Helper()
	tv := schema.MustTableVar(name, []schema.Column{schema.NewColumn("v", types.IntType)})
	tv.Keys = []schema.Key{{Columns: []string{"v"}}}
	tbl := table.NewMemoryTable(tv)
	for _, v := range values {
		if err := tbl.Insert(valueRow(tbl, v)); err != nil {
			t.Fatalf("insert %d failed: %v", v, err)
		}
	}
	return tbl
}

func valueRow(tbl *table.MemoryTable, v int64) *tuple.Tuple {
	return tuple.NewBuilder(tbl.TableVar().RowDesc()).AddInt(v).MustBuild()
}

func values(t *testing.T, c cursor.Cursor) []int64 {
	t.Helper()
	rows, err := cursor.Collect(c)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make([]int64, len(rows))
	for i, row := range rows {
		f, err := row.FieldByName("v")
		if err != nil {
			t.Fatalf("row lacks v: %v", err)
		}
		out[i] = f.(*types.IntField).Value
	}
	return out
}

func tableValues(tbl *table.MemoryTable) []int64 {
	var out []int64
	for _, row := range tbl.Rows() {
		out = append(out, row.Field(0).(*types.IntField).Value)
	}
	return out
}

func open(t *testing.T, c cursor.Cursor) {
	t.Helper()
	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
}

// below restricts a table to values under limit with a constraint.
func below(tbl *table.MemoryTable, limit int64) {
	tbl.AddConstraint(table.Constraint{
		Name: "below",
		Check: func(row *tuple.Tuple) (bool, error) {
			return row.Field(0).(*types.IntField).Value < limit, nil
		},
	})
}

func atLeast(tbl *table.MemoryTable, limit int64) {
	tbl.AddConstraint(table.Constraint{
		Name: "at_least",
		Check: func(row *tuple.Tuple) (bool, error) {
			return row.Field(0).(*types.IntField).Value >= limit, nil
		},
	})
}

// ============================================================================
// UNION TESTS
// ============================================================================

func TestUnion_CollapsesDuplicates(t *testing.T) {
	left := newValuesTable(t, "l", 1, 2)
	right := newValuesTable(t, "r", 2, 3)

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	if got := values(t, u); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got)
	}
	if !u.TableVar().ClusteringKey().Equivalent(schema.Key{Columns: []string{"v"}}) {
		t.Errorf("union key should span every column, got %v", u.TableVar().Keys)
	}

	// Rewinding must forget the rows already delivered.
	if got := values(t, u); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("second pass: expected [1 2 3], got %v", got)
	}
}

func TestUnion_Membership(t *testing.T) {
	left := newValuesTable(t, "l", 1, 4, 5)
	right := newValuesTable(t, "r", 5, 6)

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	got := values(t, u)
	for v := int64(0); v < 8; v++ {
		inEither := slices.Contains(tableValues(left), v) || slices.Contains(tableValues(right), v)
		if slices.Contains(got, v) != inEither {
			t.Errorf("membership of %d disagrees with the sides (expected %v)", v, inEither)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 distinct rows, got %v", got)
	}
}

func TestUnion_SchemaMismatch(t *testing.T) {
	left := newValuesTable(t, "l")
	tv := schema.MustTableVar("r", []schema.Column{schema.NewColumn("w", types.IntType)})
	right := table.NewMemoryTable(tv)

	_, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if !dberror.HasCode(err, dberror.CodeSchemaMismatch) {
		t.Errorf("expected schema mismatch, got %v", err)
	}
}

func TestUnion_NilabilityFromPolicy(t *testing.T) {
	left := newValuesTable(t, "l")
	right := newValuesTable(t, "r")

	opts := DefaultOptions()
	opts.Right.Insert = propagate.False
	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), opts)
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	if !u.TableVar().Columns[0].IsNilable {
		t.Error("a side that never receives inserts makes columns nilable")
	}
}

func TestUnion_InsertGating(t *testing.T) {
	tests := []struct {
		name      string
		value     int64
		enforce   bool
		wantLeft  []int64
		wantRight []int64
		wantErr   bool
	}{
		{"left accepts, right rejects", 5, true, []int64{5}, nil, false},
		{"left rejects, right accepts", 15, true, nil, []int64{15}, false},
		{"both must accept without enforcement", 5, false, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := newValuesTable(t, "l")
			right := newValuesTable(t, "r")
			below(left, 10)
			atLeast(right, 10)

			opts := DefaultOptions()
			opts.EnforcePredicate = tt.enforce
			u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), opts)
			if err != nil {
				t.Fatalf("NewUnion failed: %v", err)
			}
			open(t, u)

			err = u.Insert(valueRow(left, tt.value))
			if tt.wantErr {
				if !dberror.HasCode(err, dberror.CodeConstraintViolation) {
					t.Errorf("expected constraint violation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("insert failed: %v", err)
			}
			if got := tableValues(left); !slices.Equal(got, tt.wantLeft) {
				t.Errorf("left = %v, expected %v", got, tt.wantLeft)
			}
			if got := tableValues(right); !slices.Equal(got, tt.wantRight) {
				t.Errorf("right = %v, expected %v", got, tt.wantRight)
			}
		})
	}
}

func TestUnion_InsertSkipsFalseSide(t *testing.T) {
	left := newValuesTable(t, "l")
	right := newValuesTable(t, "r")

	opts := DefaultOptions()
	opts.Right.Insert = propagate.False
	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), opts)
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	if err := u.Insert(valueRow(left, 7)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if left.Len() != 1 || right.Len() != 0 {
		t.Errorf("expected row only on the left, left=%v right=%v", tableValues(left), tableValues(right))
	}
}

func TestUnion_UpdateMovesBetweenSides(t *testing.T) {
	left := newValuesTable(t, "l", 1)
	right := newValuesTable(t, "r")
	below(left, 10)
	atLeast(right, 10)

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	if err := u.Update(valueRow(left, 1), valueRow(left, 20)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if left.Len() != 0 {
		t.Errorf("old row should leave the left, got %v", tableValues(left))
	}
	if got := tableValues(right); !slices.Equal(got, []int64{20}) {
		t.Errorf("new row should land on the right, got %v", got)
	}
	if got := values(t, u); !slices.Equal(got, []int64{20}) {
		t.Errorf("union = %v", got)
	}
}

func TestUnion_UpdateRespectsSidePolicy(t *testing.T) {
	left := newValuesTable(t, "l", 1)
	right := newValuesTable(t, "r", 5)

	opts := DefaultOptions()
	opts.Left.Update = false
	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), opts)
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	if err := u.Update(valueRow(left, 1), valueRow(left, 2)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := tableValues(left); !slices.Equal(got, []int64{1}) {
		t.Errorf("left disables updates and must keep its rows, got %v", got)
	}
	if got := tableValues(right); !slices.Equal(got, []int64{2, 5}) {
		t.Errorf("right should receive the new row, got %v", got)
	}

	// Deletes still reach a side that only disables updates.
	if err := u.Delete(valueRow(left, 1)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if left.Len() != 0 {
		t.Errorf("delete should reach the left, got %v", tableValues(left))
	}
}

// unelaborated hides the Elaborable capability of a cursor.
type unelaborated struct {
	cursor.Cursor
}

func (c unelaborated) Capabilities() cursor.Capability {
	return c.Cursor.Capabilities() &^ cursor.Elaborable
}

func TestUnion_ElaborableNeedsBothSides(t *testing.T) {
	left := newValuesTable(t, "l", 1)
	right := newValuesTable(t, "r", 2)

	req := cursor.DefaultRequest()
	req.Capabilities |= cursor.Elaborable

	tests := []struct {
		name  string
		right cursor.Cursor
		want  bool
	}{
		{"both elaborate", right.Cursor(), true},
		{"one side elaborates", unelaborated{right.Cursor()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUnion(req, left.Cursor(), tt.right, DefaultOptions())
			if err != nil {
				t.Fatalf("NewUnion failed: %v", err)
			}
			if got := u.Supports(cursor.Elaborable); got != tt.want {
				t.Errorf("Elaborable = %v, expected %v", got, tt.want)
			}
			if !u.Supports(cursor.Updateable) {
				t.Error("union over updateable sides should stay updateable")
			}
		})
	}
}

func TestUnion_DeleteFromEverySide(t *testing.T) {
	left := newValuesTable(t, "l", 1, 2)
	right := newValuesTable(t, "r", 2, 3)

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	if err := u.Delete(valueRow(left, 2)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := values(t, u); !slices.Equal(got, []int64{1, 3}) {
		t.Errorf("expected [1 3], got %v", got)
	}

	err = u.Delete(valueRow(left, 9))
	if !dberror.HasCode(err, dberror.CodeRowNotFound) {
		t.Errorf("expected row not found, got %v", err)
	}
}

func TestUnion_DefaultAsksBothSides(t *testing.T) {
	tv := func(name string) *schema.TableVar {
		return schema.MustTableVar(name, []schema.Column{
			schema.NewColumn("v", types.IntType),
			schema.NewColumn("tag", types.StringType),
		})
	}
	left := table.NewMemoryTable(tv("l"))
	right := table.NewMemoryTable(tv("r"))
	if err := right.SetDefault("tag", func() types.Field { return types.NewStringField("right") }); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}

	row := tuple.NewTuple(u.TableVar().RowDesc())
	changed, err := u.Default(row, "")
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if !changed {
		t.Fatal("the right side's default should report a change")
	}
	if f, _ := row.FieldByName("tag"); f == nil || f.String() != "right" {
		t.Errorf("expected tag default, got %v", f)
	}
}

// ============================================================================
// DIFFERENCE TESTS
// ============================================================================

func TestDifference_Algorithms(t *testing.T) {
	for _, algo := range []DifferenceAlgorithm{Auto, Searched, Scanned, Hashed} {
		t.Run(algo.String(), func(t *testing.T) {
			left := newValuesTable(t, "l", 1, 2, 3)
			right := newValuesTable(t, "r", 2)

			d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions(), algo)
			if err != nil {
				t.Fatalf("NewDifference failed: %v", err)
			}
			open(t, d)

			if got := values(t, d); !slices.Equal(got, []int64{1, 3}) {
				t.Errorf("expected [1 3], got %v", got)
			}
		})
	}
}

func TestDifference_AutoResolves(t *testing.T) {
	left := newValuesTable(t, "l")
	right := newValuesTable(t, "r")
	req := cursor.DefaultRequest()

	d, err := NewDifference(req, left.Cursor(), right.Cursor(), DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	if d.Algorithm() != Searched {
		t.Errorf("a searchable right side should be searched, got %v", d.Algorithm())
	}

	u, err := NewUnion(req, right.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	d, err = NewDifference(req, left.Cursor(), u, DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	if d.Algorithm() != Hashed {
		t.Errorf("an unsearchable right side should be hashed, got %v", d.Algorithm())
	}

	_, err = NewDifference(req, left.Cursor(), u, DefaultOptions(), Searched)
	if !dberror.HasCode(err, dberror.CodeInvalidOperatorArguments) {
		t.Errorf("searched without a searchable right side should fail, got %v", err)
	}
}

func TestDifference_SelfIsEmpty(t *testing.T) {
	tbl := newValuesTable(t, "a", 1, 2, 3)

	d, err := NewDifference(cursor.DefaultRequest(), tbl.Cursor(), tbl.Cursor(), DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	open(t, d)

	if got := values(t, d); len(got) != 0 {
		t.Errorf("A minus A should be empty, got %v", got)
	}
}

func TestDifference_KeepsLeftMetadata(t *testing.T) {
	left := newValuesTable(t, "l", 1, 2, 3)
	right := newValuesTable(t, "r", 2)

	d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	if !d.TableVar().ClusteringKey().Equivalent(left.TableVar().ClusteringKey()) {
		t.Error("difference should carry the left key")
	}
	if !d.Supports(cursor.BackwardsNavigable) || !d.Supports(cursor.Searchable) {
		t.Errorf("backwards navigation and search should survive, got %v", d.Capabilities())
	}
	if d.Supports(cursor.Countable) {
		t.Error("the left count does not survive the exclusion")
	}

	open(t, d)
	if err := d.Last(); err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	var backwards []int64
	for {
		ok, err := d.Prior()
		if err != nil {
			t.Fatalf("Prior failed: %v", err)
		}
		if !ok {
			break
		}
		row, _ := d.Select()
		backwards = append(backwards, row.Field(0).(*types.IntField).Value)
	}
	if !slices.Equal(backwards, []int64{3, 1}) {
		t.Errorf("expected [3 1] backwards, got %v", backwards)
	}

	key := valueRow(left, 2)
	if found, err := d.FindKey(key); err != nil || found {
		t.Errorf("an excluded key should not be found: found=%v err=%v", found, err)
	}
	key = valueRow(left, 3)
	if found, err := d.FindKey(key); err != nil || !found {
		t.Errorf("FindKey(3): found=%v err=%v", found, err)
	}
}

func TestDifference_EnforcePredicate(t *testing.T) {
	left := newValuesTable(t, "l", 1)
	right := newValuesTable(t, "r", 2)

	d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	open(t, d)

	err = d.Insert(valueRow(left, 2))
	if !dberror.HasCode(err, dberror.CodeRowViolatesDifferencePredicate) {
		t.Fatalf("expected difference predicate violation, got %v", err)
	}
	if !dberror.IsUser(err) {
		t.Error("predicate violations are user severity")
	}
	if left.Len() != 1 {
		t.Errorf("rejected row must not reach the left, got %v", tableValues(left))
	}

	if err := d.Insert(valueRow(left, 4)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if got := tableValues(left); !slices.Equal(got, []int64{1, 4}) {
		t.Errorf("left = %v", got)
	}
	if got := tableValues(right); !slices.Equal(got, []int64{2}) {
		t.Errorf("the trial insert must be undone, right = %v", got)
	}
}

func TestDifference_WithoutEnforcement(t *testing.T) {
	left := newValuesTable(t, "l")
	right := newValuesTable(t, "r", 2)

	opts := DefaultOptions()
	opts.EnforcePredicate = false
	d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), opts, Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	open(t, d)

	if err := d.Insert(valueRow(left, 2)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if left.Len() != 1 {
		t.Error("row should reach the left")
	}
	if got := values(t, d); len(got) != 0 {
		t.Errorf("the row is still excluded by the right, got %v", got)
	}
}

func TestDifference_MutationsOnlyReachLeft(t *testing.T) {
	left := newValuesTable(t, "l", 1, 3)
	right := newValuesTable(t, "r", 2)

	d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions(), Hashed)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}
	open(t, d)

	if err := d.Delete(valueRow(left, 3)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := d.Update(valueRow(left, 1), valueRow(left, 5)); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if got := tableValues(left); !slices.Equal(got, []int64{5}) {
		t.Errorf("left = %v", got)
	}
	if got := tableValues(right); !slices.Equal(got, []int64{2}) {
		t.Errorf("right must be untouched, got %v", got)
	}

	err = d.Update(valueRow(left, 5), valueRow(left, 2))
	if !dberror.HasCode(err, dberror.CodeRowViolatesDifferencePredicate) {
		t.Errorf("updating into the right side should violate, got %v", err)
	}
}

func TestDifference_ValidateOnlyDescending(t *testing.T) {
	left := newValuesTable(t, "l")
	right := newValuesTable(t, "r")
	below(left, 10)

	d, err := NewDifference(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions(), Auto)
	if err != nil {
		t.Fatalf("NewDifference failed: %v", err)
	}

	if _, err := d.Validate(nil, valueRow(left, 50), "", false); err != nil {
		t.Errorf("ascending validate should not reach the left: %v", err)
	}
	if _, err := d.Validate(nil, valueRow(left, 50), "", true); !dberror.HasCode(err, dberror.CodeConstraintViolation) {
		t.Errorf("descending validate should reach the left, got %v", err)
	}
}

// ============================================================================
// COMPARISON TESTS
// ============================================================================

func TestCompare(t *testing.T) {
	tests := []struct {
		name        string
		op          Comparison
		left, right []int64
		want        bool
	}{
		{"equal", Equal, []int64{1, 2}, []int64{2, 1}, true},
		{"not equal sizes", NotEqual, []int64{1}, []int64{1, 2}, true},
		{"subset", Subset, []int64{1}, []int64{1, 2}, true},
		{"subset of itself", Subset, []int64{1, 2}, []int64{1, 2}, true},
		{"proper subset of itself", ProperSubset, []int64{1, 2}, []int64{1, 2}, false},
		{"proper subset", ProperSubset, []int64{1}, []int64{1, 2}, true},
		{"superset", Superset, []int64{1, 2, 3}, []int64{3}, true},
		{"not a superset", Superset, []int64{1}, []int64{3}, false},
		{"proper superset", ProperSuperset, []int64{1, 2}, []int64{2}, true},
		{"disjoint", Disjoint, []int64{1, 2}, []int64{3, 4}, true},
		{"overlapping", Disjoint, []int64{1, 2}, []int64{2, 4}, false},
		{"empty tables are equal", Equal, nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := newValuesTable(t, "l", tt.left...)
			right := newValuesTable(t, "r", tt.right...)

			got, err := Compare(tt.op, left.Cursor(), right.Cursor())
			if err != nil {
				t.Fatalf("Compare failed: %v", err)
			}
			if !types.FieldsEqual(got, types.NewBoolField(tt.want)) {
				t.Errorf("%v(%v, %v) = %v, expected %v", tt.op, tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestCompare_NilInput(t *testing.T) {
	left := newValuesTable(t, "l", 1)

	got, err := Compare(Equal, left.Cursor(), nil)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if got != nil {
		t.Errorf("comparison with a nil table should be nil, got %v", got)
	}
}

func TestParseComparison(t *testing.T) {
	for c := Equal; c <= Disjoint; c++ {
		parsed, err := ParseComparison(c.String())
		if err != nil || parsed != c {
			t.Errorf("round trip of %v: %v %v", c, parsed, err)
		}
	}
	if _, err := ParseComparison("overlaps"); err == nil {
		t.Error("expected error for unknown comparison")
	}
}

func TestUnion_DisjointCardinality(t *testing.T) {
	left := newValuesTable(t, "l", 1, 2, 3)
	right := newValuesTable(t, "r", 7, 8)

	u, err := NewUnion(cursor.DefaultRequest(), left.Cursor(), right.Cursor(), DefaultOptions())
	if err != nil {
		t.Fatalf("NewUnion failed: %v", err)
	}
	open(t, u)

	n, err := cursor.Count(u)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != left.Len()+right.Len() {
		t.Errorf("disjoint union has %d rows, expected %d", n, left.Len()+right.Len())
	}
}
