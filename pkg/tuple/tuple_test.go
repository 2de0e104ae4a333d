package tuple

import (
	"relcore/pkg/types"
	"testing"
)

func mustDesc(t *testing.T) *TupleDescription {
	t.Helper()
	td, err := NewTupleDesc(
		[]types.Type{types.IntType, types.StringType, types.DecimalType},
		[]string{"id", "name", "amount"},
	)
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}
	return td
}

// ============================================================================
// DESCRIPTION TESTS
// ============================================================================

func TestNewTupleDesc_DuplicateName(t *testing.T) {
	_, err := NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"a", "a"})
	if err == nil {
		t.Error("expected error for duplicate column names")
	}
}

func TestTupleDescription_Project(t *testing.T) {
	td := mustDesc(t)

	projected, indexes, err := td.Project([]string{"amount", "id"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if projected.NumFields() != 2 || projected.Columns[0].Name != "amount" {
		t.Errorf("unexpected projection %s", projected)
	}
	if indexes[0] != 2 || indexes[1] != 0 {
		t.Errorf("unexpected indexes %v", indexes)
	}

	if _, _, err := td.Project([]string{"missing"}); err == nil {
		t.Error("expected error for missing column")
	}
}

// ============================================================================
// ROW TESTS
// ============================================================================

func TestTuple_SetFieldCoercesIntegers(t *testing.T) {
	row := NewTuple(mustDesc(t))

	if err := row.SetField(2, types.NewIntField(5)); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if _, ok := row.Field(2).(*types.DecimalField); !ok {
		t.Errorf("expected decimal after coercion, got %T", row.Field(2))
	}

	if err := row.SetField(0, types.NewStringField("x")); err == nil {
		t.Error("expected type mismatch error")
	}
}

func TestTuple_HasValue(t *testing.T) {
	row := NewBuilder(mustDesc(t)).AddInt(1).AddNil().AddInt(3).MustBuild()

	if !row.HasValue(0) || row.HasValue(1) {
		t.Error("has-value bits wrong")
	}
	if err := row.SetField(0, nil); err != nil {
		t.Fatalf("clearing a field: %v", err)
	}
	if row.HasValue(0) {
		t.Error("expected column cleared")
	}
}

func TestTuple_RestrictIsZeroCopy(t *testing.T) {
	td := mustDesc(t)
	row := NewBuilder(td).AddInt(1).AddString("a").AddInt(10).MustBuild()

	sub, _, err := td.Project([]string{"name"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	view, err := row.Restrict(sub, []int{1})
	if err != nil {
		t.Fatalf("Restrict: %v", err)
	}

	if view.ValuesOwned() {
		t.Error("restriction should not own its values")
	}
	if err := view.SetField(0, types.NewStringField("b")); err != nil {
		t.Fatalf("SetField through view: %v", err)
	}
	if row.Field(1).String() != "b" {
		t.Errorf("write through view not visible in base row, got %v", row.Field(1))
	}

	clone := view.Clone()
	if !clone.ValuesOwned() {
		t.Error("clone of a view should own its values")
	}
	_ = clone.SetField(0, types.NewStringField("c"))
	if row.Field(1).String() != "b" {
		t.Error("clone must not write through to the base row")
	}
}

func TestTuple_Retype(t *testing.T) {
	td := mustDesc(t)
	renamed, err := NewTupleDesc(
		[]types.Type{types.IntType, types.StringType, types.DecimalType},
		[]string{"x.id", "x.name", "x.amount"},
	)
	if err != nil {
		t.Fatalf("NewTupleDesc: %v", err)
	}

	row := NewBuilder(td).AddInt(7).AddString("z").AddInt(1).MustBuild()
	view, err := row.Retype(renamed)
	if err != nil {
		t.Fatalf("Retype: %v", err)
	}

	f, err := view.FieldByName("x.id")
	if err != nil || f.String() != "7" {
		t.Errorf("expected x.id = 7, got %v (%v)", f, err)
	}

	bad := MustTupleDesc([]types.Type{types.IntType}, []string{"only"})
	if _, err := row.Retype(bad); err == nil {
		t.Error("expected error retyping to incompatible description")
	}
}

func TestTuple_EqualsAndHash(t *testing.T) {
	td := mustDesc(t)
	a := NewBuilder(td).AddInt(1).AddNil().AddInt(2).MustBuild()
	b := NewBuilder(td).AddInt(1).AddNil().AddInt(2).MustBuild()
	c := NewBuilder(td).AddInt(1).AddString("x").AddInt(2).MustBuild()

	if !a.Equals(b) {
		t.Error("expected equal rows")
	}
	if a.Hash() != b.Hash() {
		t.Error("equal rows must hash alike")
	}
	if a.Equals(c) {
		t.Error("nil should not equal a value")
	}
}

func TestTuple_CopyTo(t *testing.T) {
	td := mustDesc(t)
	src := NewBuilder(td).AddInt(1).AddString("n").AddInt(3).MustBuild()

	narrow := MustTupleDesc([]types.Type{types.StringType}, []string{"name"})
	dst := NewTuple(narrow)
	if err := src.CopyTo(dst); err != nil {
		t.Fatalf("CopyTo: %v", err)
	}
	if dst.Field(0).String() != "n" {
		t.Errorf("expected name copied, got %v", dst.Field(0))
	}
}

// ============================================================================
// LIST TESTS
// ============================================================================

func TestList_AppendTypeChecked(t *testing.T) {
	l := NewList(types.IntType)
	if err := l.Append(types.NewIntField(1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(nil); err != nil {
		t.Fatalf("Append nil: %v", err)
	}
	if err := l.Append(types.NewStringField("x")); err == nil {
		t.Error("expected element type error")
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 elements, got %d", l.Len())
	}
	if _, err := l.Get(5); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestListField_Equals(t *testing.T) {
	a, b := NewList(types.IntType), NewList(types.IntType)
	_ = a.Append(types.NewIntField(1))
	_ = b.Append(types.NewIntField(1))

	if !NewListField(a).Equals(NewListField(b)) {
		t.Error("expected equal lists")
	}
	_ = b.Append(nil)
	if NewListField(a).Equals(NewListField(b)) {
		t.Error("lists of different length should differ")
	}
}
