package schema

// Mapping translates source column names to result column names. A source
// column absent from the mapping does not survive the operator.
type Mapping map[string]string

// IdentityMapping maps every named column to itself.
func IdentityMapping(names []string) Mapping {
	m := make(Mapping, len(names))
	for _, n := range names {
		m[n] = n
	}
	return m
}

func (m Mapping) translate(columns []string) ([]string, bool) {
	out := make([]string, len(columns))
	for i, c := range columns {
		target, ok := m[c]
		if !ok {
			return nil, false
		}
		out[i] = target
	}
	return out, true
}

// CopyKeys returns the source keys whose every column survives the mapping,
// renamed and marked inherited.
func CopyKeys(src []Key, mapping Mapping) []Key {
	var keys []Key
	for _, k := range src {
		cols, ok := mapping.translate(k.Columns)
		if !ok {
			continue
		}
		keys = append(keys, Key{Columns: cols, IsInherited: true, IsSparse: k.IsSparse})
	}
	return keys
}

// CopyOrders returns the source orders whose every column survives the
// mapping, renamed and marked inherited.
func CopyOrders(src []Order, mapping Mapping) []Order {
	var orders []Order
	for _, o := range src {
		cols, ok := mapping.translate(o.ColumnNames())
		if !ok {
			continue
		}
		copied := Order{Columns: make([]OrderColumn, len(o.Columns)), IsInherited: true}
		for i, oc := range o.Columns {
			oc.Column = cols[i]
			copied.Columns[i] = oc
		}
		orders = append(orders, copied)
	}
	return orders
}

// CopyReferences returns the references whose source columns survive the
// mapping. Nothing is copied unless elaboration is enabled.
func CopyReferences(src []Reference, mapping Mapping, elaborate bool) []Reference {
	if !elaborate {
		return nil
	}
	var refs []Reference
	for _, r := range src {
		cols, ok := mapping.translate(r.SourceColumns)
		if !ok {
			continue
		}
		copied := r
		copied.SourceColumns = cols
		copied.TargetColumns = append([]string(nil), r.TargetColumns...)
		copied.IsDerived = true
		refs = append(refs, copied)
	}
	return refs
}

// CopyColumns returns the source columns that survive the mapping, renamed,
// in source order.
func CopyColumns(src []Column, mapping Mapping) []Column {
	var cols []Column
	for _, c := range src {
		target, ok := mapping[c.Name]
		if !ok {
			continue
		}
		c.Name = target
		cols = append(cols, c)
	}
	return cols
}
