package calculators

import (
	"testing"

	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/types"

	"github.com/shopspring/decimal"
)

func feed(t *testing.T, calc core.Calculator, values ...types.Field) types.Field {
	t.Helper()
	calc.Reset()
	for _, v := range values {
		if err := calc.Add(v); err != nil {
			t.Fatalf("Add(%v) failed: %v", v, err)
		}
	}
	result, err := calc.Result()
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	return result
}

func ints(values ...int64) []types.Field {
	out := make([]types.Field, len(values))
	for i, v := range values {
		out[i] = types.NewIntField(v)
	}
	return out
}

// ====================================
// GetCalculator Tests
// ====================================

func TestGetCalculator(t *testing.T) {
	tests := []struct {
		name       string
		fieldType  types.Type
		op         core.AggregateOp
		expectErr  bool
		resultType types.Type
	}{
		{"count of strings", types.StringType, core.Count, false, types.IntType},
		{"sum of ints", types.IntType, core.Sum, false, types.IntType},
		{"avg of ints is decimal", types.IntType, core.Avg, false, types.DecimalType},
		{"avg of floats", types.FloatType, core.Avg, false, types.FloatType},
		{"sum of decimals", types.DecimalType, core.Sum, false, types.DecimalType},
		{"all of bools", types.BoolType, core.All, false, types.BoolType},
		{"max of strings", types.StringType, core.Max, false, types.StringType},
		{"sum of strings", types.StringType, core.Sum, true, 0},
		{"any of ints", types.IntType, core.Any, true, 0},
		{"min of bools", types.BoolType, core.Min, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := GetCalculator(tt.fieldType, tt.op)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for %v over %v", tt.op, tt.fieldType)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := calc.ResultType(tt.op); got != tt.resultType {
				t.Errorf("expected result type %v, got %v", tt.resultType, got)
			}
		})
	}
}

// ====================================
// Empty Group Tests
// ====================================

func TestEmptyGroupResults(t *testing.T) {
	tests := []struct {
		name      string
		fieldType types.Type
		op        core.AggregateOp
		want      types.Field
	}{
		{"count is zero", types.IntType, core.Count, types.NewIntField(0)},
		{"sum is nil", types.IntType, core.Sum, nil},
		{"min is nil", types.StringType, core.Min, nil},
		{"max is nil", types.FloatType, core.Max, nil},
		{"avg is nil", types.DecimalType, core.Avg, nil},
		{"all is true", types.BoolType, core.All, types.NewBoolField(true)},
		{"any is false", types.BoolType, core.Any, types.NewBoolField(false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := GetCalculator(tt.fieldType, tt.op)
			if err != nil {
				t.Fatalf("GetCalculator failed: %v", err)
			}
			if got := feed(t, calc); !types.FieldsEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// ====================================
// IntCalculator Tests
// ====================================

func TestIntCalculator(t *testing.T) {
	values := ints(4, -2, 9, 1)

	tests := []struct {
		op   core.AggregateOp
		want types.Field
	}{
		{core.Sum, types.NewIntField(12)},
		{core.Min, types.NewIntField(-2)},
		{core.Max, types.NewIntField(9)},
		{core.Avg, types.NewDecimalField(decimal.NewFromInt(3))},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			got := feed(t, NewIntCalculator(tt.op), values...)
			if !types.FieldsEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestIntCalculator_AvgIsExact(t *testing.T) {
	got := feed(t, NewIntCalculator(core.Avg), ints(1, 2)...)
	want := types.NewDecimalField(decimal.RequireFromString("1.5"))
	if !types.FieldsEqual(got, want) {
		t.Errorf("expected 1.5, got %v", got)
	}
}

func TestIntCalculator_ResetBetweenGroups(t *testing.T) {
	calc := NewIntCalculator(core.Sum)
	if got := feed(t, calc, ints(5, 5)...); !types.FieldsEqual(got, types.NewIntField(10)) {
		t.Fatalf("first group: %v", got)
	}
	if got := feed(t, calc, ints(1)...); !types.FieldsEqual(got, types.NewIntField(1)) {
		t.Errorf("second group should not see the first: %v", got)
	}
}

func TestIntCalculator_WrongType(t *testing.T) {
	calc := NewIntCalculator(core.Sum)
	if err := calc.Add(types.NewStringField("x")); err == nil {
		t.Error("expected type error")
	}
}

// ====================================
// Other Calculator Tests
// ====================================

func TestFloatCalculator_Avg(t *testing.T) {
	got := feed(t, NewFloatCalculator(core.Avg), types.NewFloatField(1.5), types.NewFloatField(2.5))
	if f, ok := got.(*types.FloatField); !ok || f.Value != 2.0 {
		t.Errorf("expected 2.0, got %v", got)
	}
}

func TestDecimalCalculator_Sum(t *testing.T) {
	got := feed(t, NewDecimalCalculator(core.Sum),
		types.NewDecimalField(decimal.RequireFromString("0.10")),
		types.NewDecimalField(decimal.RequireFromString("0.20")),
	)
	if !types.FieldsEqual(got, types.NewDecimalField(decimal.RequireFromString("0.3"))) {
		t.Errorf("expected exact 0.3, got %v", got)
	}
}

func TestBooleanCalculator(t *testing.T) {
	values := []types.Field{types.NewBoolField(true), types.NewBoolField(false)}

	if got := feed(t, NewBooleanCalculator(core.All), values...); !types.FieldsEqual(got, types.NewBoolField(false)) {
		t.Errorf("ALL: %v", got)
	}
	if got := feed(t, NewBooleanCalculator(core.Any), values...); !types.FieldsEqual(got, types.NewBoolField(true)) {
		t.Errorf("ANY: %v", got)
	}
}

func TestStringCalculator(t *testing.T) {
	values := []types.Field{types.NewStringField("pear"), types.NewStringField("apple"), types.NewStringField("fig")}

	if got := feed(t, NewStringCalculator(core.Min), values...); got.String() != "apple" {
		t.Errorf("MIN: %v", got)
	}
	if got := feed(t, NewStringCalculator(core.Max), values...); got.String() != "pear" {
		t.Errorf("MAX: %v", got)
	}
}

func TestParseAggregateOp(t *testing.T) {
	for _, op := range []core.AggregateOp{core.Count, core.Sum, core.Min, core.Max, core.Avg, core.All, core.Any} {
		parsed, err := core.ParseAggregateOp(op.String())
		if err != nil || parsed != op {
			t.Errorf("ParseAggregateOp(%q) = %v, %v", op.String(), parsed, err)
		}
	}
	if _, err := core.ParseAggregateOp("median"); err == nil {
		t.Error("expected error for unknown operation")
	}
}
