package main

import (
	"fmt"

	"relcore/pkg/cursor"
	"relcore/pkg/execution/aggregation"
	"relcore/pkg/execution/extract"
	"relcore/pkg/execution/query"
	"relcore/pkg/execution/scalar"
	"relcore/pkg/execution/setops"
	"relcore/pkg/plan"
	"relcore/pkg/schema"
	"relcore/pkg/table"
	"relcore/pkg/tuple"
	"relcore/pkg/types"
)

// scenario is one operator tree of the demo. Each owns its arena, so
// scenarios can be bound and read concurrently.
type scenario struct {
	name  string
	arena *plan.Arena
	root  plan.NodeID
}

// outcome is what running a scenario produced.
type outcome struct {
	listing string
	columns []string
	rows    [][]string
	extra   []string
}

func intTable(name string, values ...int64) (*table.MemoryTable, error) {
	tv, err := schema.NewTableVar(name, []schema.Column{schema.NewColumn("v", types.IntType)})
	if err != nil {
		return nil, err
	}
	tv.Keys = []schema.Key{{Columns: []string{"v"}}}
	tbl := table.NewMemoryTable(tv)
	for _, v := range values {
		if err := tbl.Insert(tuple.NewBuilder(tv.RowDesc()).AddInt(v).MustBuild()); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func taggedTable() (*table.MemoryTable, error) {
	tv, err := schema.NewTableVar("tagged", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("tag", types.StringType),
	})
	if err != nil {
		return nil, err
	}
	tv.Keys = []schema.Key{{Columns: []string{"id", "tag"}}}
	tbl := table.NewMemoryTable(tv)
	for _, r := range []struct {
		id  int64
		tag string
	}{{1, "a"}, {2, "b"}, {2, "c"}} {
		if err := tbl.Insert(tuple.NewBuilder(tv.RowDesc()).AddInt(r.id).AddString(r.tag).MustBuild()); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func staffTable() (*table.MemoryTable, error) {
	tv, err := schema.NewTableVar("staff", []schema.Column{
		schema.NewColumn("id", types.IntType),
		schema.NewColumn("manager", types.IntType),
		schema.NewColumn("name", types.StringType),
		schema.NewColumn("dept", types.StringType),
		schema.NewColumn("salary", types.IntType),
	})
	if err != nil {
		return nil, err
	}
	tv.Keys = []schema.Key{{Columns: []string{"id"}}}
	tbl := table.NewMemoryTable(tv)
	staff := []struct {
		id, manager int64
		name, dept  string
		salary      int64
	}{
		{1, 0, "Ada", "eng", 300},
		{2, 1, "Brian", "eng", 200},
		{3, 2, "Chen", "eng", 150},
		{4, 1, "Dana", "ops", 180},
		{5, 4, "Emil", "ops", 120},
	}
	for _, s := range staff {
		b := tuple.NewBuilder(tv.RowDesc()).AddInt(s.id)
		if s.manager == 0 {
			b.AddNil()
		} else {
			b.AddInt(s.manager)
		}
		row := b.AddString(s.name).AddString(s.dept).AddInt(s.salary).MustBuild()
		if err := tbl.Insert(row); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// loadTables registers the demo relations.
func loadTables() (*table.TableManager, error) {
	tm := table.NewTableManager()
	register := func(t *table.MemoryTable, err error) error {
		if err != nil {
			return err
		}
		return tm.AddTable(t)
	}
	if err := register(taggedTable()); err != nil {
		return nil, err
	}
	if err := register(staffTable()); err != nil {
		return nil, err
	}
	for name, values := range map[string][]int64{
		"one_to_four": {1, 2, 3, 4},
		"left":        {1, 2},
		"right":       {2, 3},
		"minuend":     {1, 2, 3},
		"subtrahend":  {2},
	} {
		if err := register(intTable(name, values...)); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// buildScenarios assembles the demo trees over the tables registered in tm.
func buildScenarios(tm *table.TableManager, ops *scalar.Registry, difference setops.DifferenceAlgorithm) ([]scenario, error) {
	names := []string{"tagged", "staff", "one_to_four", "left", "right", "minuend", "subtrahend"}
	tables := make(map[string]*table.MemoryTable, len(names))
	for _, name := range names {
		t, err := tm.GetTable(name)
		if err != nil {
			return nil, err
		}
		tables[name] = t
	}
	tagged, staff := tables["tagged"], tables["staff"]

	var scenarios []scenario
	add := func(name string, build func(a *plan.Arena) plan.NodeID) {
		a := plan.NewArena()
		scenarios = append(scenarios, scenario{name: name, arena: a, root: build(a)})
	}

	add("project", func(a *plan.Arena) plan.NodeID {
		return a.Project(a.Table(tagged), "id")
	})
	add("quota", func(a *plan.Arena) plan.NodeID {
		return a.Quota(a.Table(tables["one_to_four"]), schema.Descending("v"), 2)
	})
	add("union", func(a *plan.Arena) plan.NodeID {
		return a.Union(a.Table(tables["left"]), a.Table(tables["right"]), setops.DefaultOptions())
	})
	add("difference", func(a *plan.Arena) plan.NodeID {
		return a.Difference(a.Table(tables["minuend"]), a.Table(tables["subtrahend"]), setops.DefaultOptions(), difference)
	})
	add("payroll", func(a *plan.Arena) plan.NodeID {
		return a.Aggregate(a.Table(staff), []string{"dept"},
			aggregation.Column{Name: "headcount", Op: aggregation.Count},
			aggregation.Column{Name: "total", Op: aggregation.Sum, Source: "salary"},
			aggregation.Column{Name: "average", Op: aggregation.Avg, Source: "salary"},
		)
	})
	add("hierarchy", func(a *plan.Arena) plan.NodeID {
		return a.Explode(a.Table(staff), query.ExplodeOptions{
			Root: func(row *tuple.Tuple) (bool, error) {
				f, err := row.FieldByName("manager")
				return f == nil, err
			},
			Links:       []query.Correspondence{{Parent: "id", Child: "manager"}},
			Order:       schema.Ascending("name"),
			LevelColumn: "level",
		})
	})

	greater, err := ops.Lookup("greater")
	if err != nil {
		return nil, err
	}
	add("well_paid", func(a *plan.Arena) plan.NodeID {
		threshold := types.NewIntField(175)
		paid := a.Restrict(a.Table(staff), func(row *tuple.Tuple) (bool, error) {
			salary, err := row.FieldByName("salary")
			if err != nil {
				return false, err
			}
			result, err := greater.Invoke([]types.Field{salary, threshold})
			if err != nil {
				return false, err
			}
			t, err := scalar.TruthOf(result)
			return t == scalar.True, err
		}, greater)
		return a.RenameAll(a.Project(paid, "name", "salary"), "paid")
	})
	return scenarios, nil
}

// run binds and reads a scenario. Single-row results also report the
// extraction and comparison helpers over the same tree.
func (s scenario) run(req cursor.Request) (outcome, error) {
	var out outcome
	listing, err := plan.ExplainString(s.arena, s.root)
	if err != nil {
		return out, err
	}
	out.listing = listing

	c, err := plan.Bind(s.arena, s.root, req)
	if err != nil {
		return out, err
	}
	list, err := extract.ToList(c)
	if err != nil {
		return out, err
	}
	out.columns = c.TableVar().ColumnNames()
	for i := 0; i < list.Len(); i++ {
		element, err := extract.IndexList(list, i)
		if err != nil {
			return out, err
		}
		row := element.(*tuple.RowField).Row
		cells := make([]string, row.TupleDesc.NumFields())
		for j := range cells {
			if f := row.Field(j); f != nil {
				cells[j] = f.String()
			} else {
				cells[j] = "∅"
			}
		}
		out.rows = append(out.rows, cells)
	}

	again, err := plan.Bind(s.arena, s.root, req)
	if err != nil {
		return out, err
	}
	exists, err := extract.Exists(again)
	if err != nil {
		return out, err
	}
	out.extra = append(out.extra, fmt.Sprintf("exists = %v", exists))

	left, err := plan.Bind(s.arena, s.root, req)
	if err != nil {
		return out, err
	}
	right, err := plan.Bind(s.arena, s.root, req)
	if err != nil {
		return out, err
	}
	equal, err := setops.Compare(setops.Equal, left, right)
	if err != nil {
		return out, err
	}
	out.extra = append(out.extra, fmt.Sprintf("equals itself = %v", equal))
	return out, nil
}
