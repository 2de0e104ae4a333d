package types

import (
	"relcore/pkg/primitives"
	"strings"
)

// StringField is a variable-length string value.
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	return &StringField{Value: value}
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	if !ok {
		return false
	}
	return s.Value == o.Value
}

// Compare supports the ordering predicates plus Like, which is a substring match.
func (s *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	if op == primitives.Like {
		o, ok := other.(*StringField)
		if !ok {
			return false, mismatch(s, other)
		}
		return strings.Contains(s.Value, o.Value), nil
	}
	return compareWith(s, op, other)
}

func (s *StringField) compareTo(other Field) (int, error) {
	o, ok := other.(*StringField)
	if !ok {
		return 0, mismatch(s, other)
	}
	return strings.Compare(s.Value, o.Value), nil
}

func (s *StringField) Hash() (primitives.HashCode, error) {
	return fnvHash([]byte(s.Value)), nil
}
