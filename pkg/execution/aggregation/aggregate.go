package aggregation

import (
	"errors"
	"fmt"

	"relcore/pkg/cursor"
	dberror "relcore/pkg/error"
	"relcore/pkg/execution/aggregation/internal/calculators"
	"relcore/pkg/execution/aggregation/internal/core"
	"relcore/pkg/execution/query"
	"relcore/pkg/primitives"
	"relcore/pkg/schema"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// AggregateOp is the aggregate function applied to a column.
type AggregateOp = core.AggregateOp

const (
	Count = core.Count
	Sum   = core.Sum
	Min   = core.Min
	Max   = core.Max
	Avg   = core.Avg
	All   = core.All
	Any   = core.Any
)

// ParseAggregateOp parses an aggregate function name such as "sum".
func ParseAggregateOp(s string) (AggregateOp, error) {
	return core.ParseAggregateOp(s)
}

// Column is one aggregate expression of the result.
type Column struct {
	// Name of the result column.
	Name string
	Op   AggregateOp
	// Source column aggregated. Empty only for Count, which then counts rows.
	Source string
	// Distinct aggregates each distinct value once.
	Distinct bool
}

// GroupSource produces a fresh, unopened cursor over the source rows of one
// group. The group row holds the by-column values; with no by-columns it is
// an empty row and the cursor must cover every source row.
type GroupSource func(group *tuple.Tuple) (cursor.Cursor, error)

// Aggregate computes one row per group: the group's by-column values
// followed by one value per aggregate column.
//
// Implementation:
//   - Groups come from a distinct projection of the source onto the
//     by-columns, or a single empty group when there are none
//   - Each group's aggregates are computed by opening the group's restricted
//     source, feeding every row to the calculators, and closing it again
//   - The result is read-only
type Aggregate struct {
	*cursor.Base
	cursor.ReadOnly
	groups      cursor.Cursor // nil when there are no by-columns
	groupSource GroupSource
	columns     []Column
	sourceCols  []int // source position per column, -1 for Count of rows
	calcs       []core.Calculator
	byWidth     int
	done        bool
}

// NewAggregate creates an aggregation over a source described by source.
// groups is the distinct projection of the source onto the by-columns, or
// nil to aggregate the whole source into a single row.
func NewAggregate(req cursor.Request, source *schema.TableVar, groups cursor.Cursor, groupSource GroupSource, columns []Column) (*Aggregate, error) {
	if groupSource == nil || len(columns) == 0 {
		return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "aggregate needs a group source and at least one column").
			In("NewAggregate", "Aggregate")
	}

	var resultCols []schema.Column
	var keys []schema.Key
	var orders []schema.Order
	if groups != nil {
		gtv := groups.TableVar()
		resultCols = append(resultCols, schema.CopyColumns(gtv.Columns, schema.IdentityMapping(gtv.ColumnNames()))...)
		keys = []schema.Key{{Columns: gtv.ColumnNames()}}
		orders = schema.CopyOrders(gtv.Orders, schema.IdentityMapping(gtv.ColumnNames()))
	} else {
		keys = []schema.Key{{Columns: []string{}}}
	}
	byWidth := len(resultCols)

	a := &Aggregate{
		ReadOnly:    cursor.ReadOnly{Operator: "Aggregate"},
		groups:      groups,
		groupSource: groupSource,
		columns:     columns,
		byWidth:     byWidth,
	}

	for _, col := range columns {
		idx := -1
		valueType := types.IntType
		if col.Source != "" {
			idx = source.ColumnIndex(col.Source)
			if idx < 0 {
				return nil, dberror.NewUser(dberror.CodeColumnNotFound, "aggregated column not found").
					WithDetail("column %q", col.Source).
					In("NewAggregate", "Aggregate")
			}
			valueType = source.Columns[idx].Type
		} else if col.Op != Count {
			return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, "only COUNT may omit its column").
				WithDetail("%s(%s)", col.Op, col.Name).
				In("NewAggregate", "Aggregate")
		}

		calc, err := calculators.GetCalculator(valueType, col.Op)
		if err != nil {
			return nil, dberror.NewUser(dberror.CodeInvalidOperatorArguments, err.Error()).
				WithDetail("column %q", col.Name).
				In("NewAggregate", "Aggregate")
		}

		result := schema.NewColumn(col.Name, calc.ResultType(col.Op))
		result.IsComputed, result.ReadOnly = true, true
		result.IsNilable = col.Op != Count && col.Op != All && col.Op != Any
		resultCols = append(resultCols, result)
		a.sourceCols = append(a.sourceCols, idx)
		a.calcs = append(a.calcs, calc)
	}

	tv, err := schema.Derive("aggregate", resultCols)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSchemaMismatch, "NewAggregate", "Aggregate")
	}
	tv.Keys = keys
	tv.Orders = orders
	tv.DetermineRemotable()

	var sources []cursor.Cursor
	if groups != nil {
		sources = append(sources, groups)
	}
	caps := cursor.Navigable
	if groups != nil {
		caps = cursor.Derive(req, groups.Capabilities(), 0, false)
	}
	a.Base = cursor.NewBase("aggregate", tv, caps, a.readNext, a.rewind, sources...)
	return a, nil
}

// Restricted builds a GroupSource that restricts a fresh copy of the source
// to the rows matching the group. With no by-columns the copy is returned
// unrestricted.
func Restricted(req cursor.Request, newSource func() (cursor.Cursor, error)) GroupSource {
	return func(group *tuple.Tuple) (cursor.Cursor, error) {
		src, err := newSource()
		if err != nil {
			return nil, err
		}
		if group.TupleDesc.NumFields() == 0 {
			return src, nil
		}
		return query.NewRowRestrict(req, src, group)
	}
}

func (a *Aggregate) rewind(bool) error {
	a.done = false
	if a.groups == nil {
		return nil
	}
	return a.groups.First()
}

func (a *Aggregate) nextGroup() (*tuple.Tuple, error) {
	if a.groups == nil {
		if a.done {
			return nil, nil
		}
		a.done = true
		empty, err := tuple.NewTupleDescFromColumns(nil)
		if err != nil {
			return nil, err
		}
		return tuple.NewTuple(empty), nil
	}

	ok, err := a.groups.Next()
	if err != nil || !ok {
		return nil, err
	}
	return a.groups.Select()
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	group, err := a.nextGroup()
	if err != nil || group == nil {
		return nil, err
	}

	row := tuple.NewTuple(a.TableVar().RowDesc())
	for i := range a.byWidth {
		if err := row.SetField(i, group.Field(i)); err != nil {
			return nil, err
		}
	}
	if err := a.compute(group, row); err != nil {
		return nil, err
	}
	return row, nil
}

// compute runs every aggregate over one group's rows in a single pass.
func (a *Aggregate) compute(group, row *tuple.Tuple) (err error) {
	src, err := a.groupSource(group)
	if err != nil {
		return err
	}
	if err := src.Open(); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	seen := make([]map[primitives.HashCode][]types.Field, len(a.columns))
	for i, calc := range a.calcs {
		calc.Reset()
		if a.columns[i].Distinct {
			seen[i] = make(map[primitives.HashCode][]types.Field)
		}
	}

	err = cursor.Iterate(src, func(r *tuple.Tuple) (bool, error) {
		for i, calc := range a.calcs {
			value := types.Field(types.NewBoolField(true))
			if idx := a.sourceCols[i]; idx >= 0 {
				value = r.Field(idx)
			}
			if value == nil {
				continue
			}
			if seen[i] != nil && !firstSighting(seen[i], value) {
				continue
			}
			if err := calc.Add(value); err != nil {
				return false, fmt.Errorf("aggregate %q: %w", a.columns[i].Name, err)
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	for i, calc := range a.calcs {
		result, err := calc.Result()
		if err != nil {
			return err
		}
		if err := row.SetField(a.byWidth+i, result); err != nil {
			return err
		}
	}
	return nil
}

// firstSighting records value and reports whether it had not been seen.
func firstSighting(seen map[primitives.HashCode][]types.Field, value types.Field) bool {
	h := types.HashField(value)
	for _, v := range seen[h] {
		if v.Equals(value) {
			return false
		}
	}
	seen[h] = append(seen[h], value)
	return true
}
