package types

import (
	"fmt"
	"relcore/pkg/primitives"
)

// Field is a single non-nil value. A missing value is represented by a nil
// Field wherever fields are stored, never by a sentinel implementation.
type Field interface {
	Type() Type

	String() string

	Equals(other Field) bool

	// Compare applies op between this field and other. Fields of
	// incompatible types return an error.
	Compare(op primitives.Predicate, other Field) (bool, error)

	Hash() (primitives.HashCode, error)
}

// ordered is implemented by fields that support a three-way comparison.
type ordered interface {
	compareTo(other Field) (int, error)
}

// CompareFields returns -1, 0 or 1 ordering a before, equal to or after b.
// A nil field sorts before any value and equals another nil.
func CompareFields(a, b Field) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return -1, nil
	case b == nil:
		return 1, nil
	}

	o, ok := a.(ordered)
	if !ok {
		return 0, fmt.Errorf("values of type %v are not ordered", a.Type())
	}
	return o.compareTo(b)
}

// FieldsEqual compares two possibly nil fields. Two nils are equal.
func FieldsEqual(a, b Field) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// HashField hashes a possibly nil field. Nil hashes to zero.
func HashField(f Field) primitives.HashCode {
	if f == nil {
		return 0
	}
	h, err := f.Hash()
	if err != nil {
		return 0
	}
	return h
}

func compareWith(f ordered, op primitives.Predicate, other Field) (bool, error) {
	cmp, err := f.compareTo(other)
	if err != nil {
		return false, err
	}
	return op.Holds(cmp), nil
}

func mismatch(self Field, other Field) error {
	return fmt.Errorf("cannot compare %v with %T", self.Type(), other)
}
