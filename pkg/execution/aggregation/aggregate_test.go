package aggregation

import (
	"errors"
	"testing"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/query"
	"relcore/pkg/schema"
	"relcore/pkg/table"
	"relcore/pkg/tuple"
	"relcore/pkg/types"

	"github.com/shopspring/decimal"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newStaffTable(t *testing.T) *table.MemoryTable {
	t.Helper()
	tv := schema.MustTableVar("staff", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("dept", types.StringType),
		schema.NewColumn("salary", types.IntType),
		schema.NewColumn("active", types.BoolType),
	})
	tv.Keys = []schema.Key{{Columns: []string{"id"}}}
	tbl := table.NewMemoryTable(tv)

	rows := []struct {
		id     int64
		dept   string
		salary int64
		active bool
	}{
		{1, "eng", 100, true},
		{2, "eng", 200, true},
		{3, "ops", 50, false},
		{4, "eng", 200, false},
	}
	for _, r := range rows {
		row := tuple.NewBuilder(tv.RowDesc()).AddInt(r.id).AddString(r.dept).AddInt(r.salary).AddBool(r.active).MustBuild()
		if err := tbl.Insert(row); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	return tbl
}

func tableSource(tbl *table.MemoryTable) func() (cursor.Cursor, error) {
	return func() (cursor.Cursor, error) {
		return tbl.Cursor(), nil
	}
}

func collect(t *testing.T, c cursor.Cursor) []*tuple.Tuple {
	t.Helper()
	if err := c.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer c.Close()
	rows, err := cursor.Collect(c)
	if err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	return rows
}

func fieldOf(t *testing.T, row *tuple.Tuple, name string) types.Field {
	t.Helper()
	f, err := row.FieldByName(name)
	if err != nil {
		t.Fatalf("field %q: %v", name, err)
	}
	return f
}

// ============================================================================
// AGGREGATE TESTS
// ============================================================================

func TestAggregate_GroupedByColumn(t *testing.T) {
	tbl := newStaffTable(t)
	req := cursor.DefaultRequest()

	groups, err := query.NewProject(req, tbl.Cursor(), []string{"dept"})
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	agg, err := NewAggregate(req, tbl.TableVar(), groups, Restricted(req, tableSource(tbl)), []Column{
		{Name: "headcount", Op: Count},
		{Name: "total", Op: Sum, Source: "salary"},
		{Name: "distinct_salaries", Op: Count, Source: "salary", Distinct: true},
		{Name: "avg_salary", Op: Avg, Source: "salary"},
		{Name: "all_active", Op: All, Source: "active"},
	})
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if !agg.TableVar().ClusteringKey().Equivalent(schema.Key{Columns: []string{"dept"}}) {
		t.Errorf("expected key on dept, got %v", agg.TableVar().Keys)
	}

	rows := collect(t, agg)
	if len(rows) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(rows))
	}

	eng := rows[0]
	if fieldOf(t, eng, "dept").String() != "eng" {
		t.Fatalf("groups out of order: %v", rows)
	}
	checks := []struct {
		column string
		want   types.Field
	}{
		{"headcount", types.NewIntField(3)},
		{"total", types.NewIntField(500)},
		{"distinct_salaries", types.NewIntField(2)},
		{"avg_salary", types.NewDecimalField(decimal.RequireFromString("166.6666666666666667"))},
		{"all_active", types.NewBoolField(false)},
	}
	for _, c := range checks {
		if c.column == "avg_salary" {
			got := fieldOf(t, eng, c.column).(*types.DecimalField)
			if !got.Value.Round(4).Equal(decimal.RequireFromString("166.6667")) {
				t.Errorf("avg_salary = %v", got)
			}
			continue
		}
		if got := fieldOf(t, eng, c.column); !types.FieldsEqual(got, c.want) {
			t.Errorf("%s = %v, expected %v", c.column, got, c.want)
		}
	}

	ops := rows[1]
	if got := fieldOf(t, ops, "headcount"); !types.FieldsEqual(got, types.NewIntField(1)) {
		t.Errorf("ops headcount = %v", got)
	}
}

func TestAggregate_NoGroupingSingleRow(t *testing.T) {
	tbl := newStaffTable(t)
	req := cursor.DefaultRequest()

	agg, err := NewAggregate(req, tbl.TableVar(), nil, Restricted(req, tableSource(tbl)), []Column{
		{Name: "n", Op: Count},
		{Name: "top", Op: Max, Source: "salary"},
	})
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if !agg.TableVar().IsSingleton() {
		t.Error("aggregate without by-columns should have an empty key")
	}

	rows := collect(t, agg)
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if got := fieldOf(t, rows[0], "n"); !types.FieldsEqual(got, types.NewIntField(4)) {
		t.Errorf("n = %v", got)
	}
	if got := fieldOf(t, rows[0], "top"); !types.FieldsEqual(got, types.NewIntField(200)) {
		t.Errorf("top = %v", got)
	}
}

func TestAggregate_EmptySource(t *testing.T) {
	tv := schema.MustTableVar("empty", []schema.Column{schema.NewColumn("v", types.IntType)})
	tbl := table.NewMemoryTable(tv)
	req := cursor.DefaultRequest()

	agg, err := NewAggregate(req, tv, nil, Restricted(req, tableSource(tbl)), []Column{
		{Name: "n", Op: Count, Source: "v"},
		{Name: "s", Op: Sum, Source: "v"},
	})
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	rows := collect(t, agg)
	if len(rows) != 1 {
		t.Fatalf("expected one row over an empty source, got %d", len(rows))
	}
	if got := fieldOf(t, rows[0], "n"); !types.FieldsEqual(got, types.NewIntField(0)) {
		t.Errorf("count of empty = %v", got)
	}
	if got := fieldOf(t, rows[0], "s"); got != nil {
		t.Errorf("sum of empty should be nil, got %v", got)
	}
}

func TestAggregate_CompileErrors(t *testing.T) {
	tbl := newStaffTable(t)
	req := cursor.DefaultRequest()
	src := Restricted(req, tableSource(tbl))

	tests := []struct {
		name    string
		columns []Column
		code    string
	}{
		{"unknown column", []Column{{Name: "x", Op: Sum, Source: "bonus"}}, dberror.CodeColumnNotFound},
		{"unsupported signature", []Column{{Name: "x", Op: Sum, Source: "dept"}}, dberror.CodeInvalidOperatorArguments},
		{"sum without column", []Column{{Name: "x", Op: Sum}}, dberror.CodeInvalidOperatorArguments},
		{"no columns", nil, dberror.CodeInvalidOperatorArguments},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAggregate(req, tbl.TableVar(), nil, src, tt.columns)
			if !dberror.HasCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
			if !dberror.IsUser(err) {
				t.Errorf("compile errors should be user severity: %v", err)
			}
		})
	}
}

func TestAggregate_ReadOnly(t *testing.T) {
	tbl := newStaffTable(t)
	req := cursor.DefaultRequest()

	agg, err := NewAggregate(req, tbl.TableVar(), nil, Restricted(req, tableSource(tbl)), []Column{{Name: "n", Op: Count}})
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if agg.Supports(cursor.Updateable) {
		t.Error("aggregate should not be updateable")
	}
	if err := agg.Insert(nil); !dberror.HasCode(err, dberror.CodeNotUpdateable) {
		t.Errorf("expected not updateable, got %v", err)
	}
}

type failingOpen struct {
	cursor.Cursor
}

func (f failingOpen) Open() error {
	return errors.New("group source unavailable")
}

func TestAggregate_GroupSourceFailure(t *testing.T) {
	tbl := newStaffTable(t)
	req := cursor.DefaultRequest()

	failing := func(*tuple.Tuple) (cursor.Cursor, error) {
		return failingOpen{tbl.Cursor()}, nil
	}
	agg, err := NewAggregate(req, tbl.TableVar(), nil, failing, []Column{{Name: "n", Op: Count}})
	if err != nil {
		t.Fatalf("NewAggregate failed: %v", err)
	}
	if err := agg.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer agg.Close()

	if _, err := agg.Next(); err == nil {
		t.Error("expected the group source failure to surface")
	}
}
