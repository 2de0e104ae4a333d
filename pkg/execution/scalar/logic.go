package scalar

import "relcore/pkg/types"

// Truth is a three-valued logical value.
type Truth int

const (
	Unknown Truth = iota
	False
	True
)

func (t Truth) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// TruthOf reads a Bool field as a Truth. Nil is Unknown.
func TruthOf(f types.Field) (Truth, error) {
	if f == nil {
		return Unknown, nil
	}
	b, ok := f.(*types.BoolField)
	if !ok {
		return Unknown, badArgument("truth", f)
	}
	if b.Value {
		return True, nil
	}
	return False, nil
}

// Field converts t to a Bool field, nil for Unknown.
func (t Truth) Field() types.Field {
	switch t {
	case True:
		return types.NewBoolField(true)
	case False:
		return types.NewBoolField(false)
	default:
		return nil
	}
}

// And is false when either side is false, unknown when either side is
// unknown, and true otherwise.
func And(a, b Truth) Truth {
	switch {
	case a == False || b == False:
		return False
	case a == Unknown || b == Unknown:
		return Unknown
	default:
		return True
	}
}

// Or is true when either side is true, unknown when either side is unknown,
// and false otherwise.
func Or(a, b Truth) Truth {
	switch {
	case a == True || b == True:
		return True
	case a == Unknown || b == Unknown:
		return Unknown
	default:
		return False
	}
}

func Not(a Truth) Truth {
	switch a {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

func Xor(a, b Truth) Truth {
	if a == Unknown || b == Unknown {
		return Unknown
	}
	if a != b {
		return True
	}
	return False
}

func logical(name string, nilAware bool, combine func(a, b Truth) Truth) *function {
	return &function{name: name, arity: 2, nilAware: nilAware, eval: func(args []types.Field) (types.Field, error) {
		a, err := TruthOf(args[0])
		if err != nil {
			return nil, err
		}
		b, err := TruthOf(args[1])
		if err != nil {
			return nil, err
		}
		return combine(a, b).Field(), nil
	}}
}

func logicOperators() []Operator {
	return []Operator{
		logical("and", true, And),
		logical("or", true, Or),
		logical("xor", false, Xor),
		unary("not", func(a types.Field) (types.Field, error) {
			t, err := TruthOf(a)
			if err != nil {
				return nil, err
			}
			return Not(t).Field(), nil
		}),
	}
}
