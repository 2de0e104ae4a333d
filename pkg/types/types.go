package types

// Type identifies the declared type of a column or value.
type Type int

const (
	IntType Type = iota
	StringType
	BoolType
	FloatType
	DecimalType
	RowType
	ListType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case IntType:
		return "Integer"
	case StringType:
		return "String"
	case BoolType:
		return "Boolean"
	case FloatType:
		return "Float"
	case DecimalType:
		return "Decimal"
	case RowType:
		return "Row"
	case ListType:
		return "List"
	default:
		return "Unknown"
	}
}

// IsScalar reports whether values of this type are ordered, hashable scalars.
func (t Type) IsScalar() bool {
	return t <= DecimalType
}

// IsNumeric reports whether arithmetic is defined for this type.
func (t Type) IsNumeric() bool {
	return t == IntType || t == FloatType || t == DecimalType
}
