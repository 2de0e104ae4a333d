// Package scalar implements the scalar operators rows are filtered and
// computed with: three-valued logic, arithmetic, bitwise operations,
// comparisons and random numbers.
//
// Every operator is invoked with a slice of argument values. A nil argument
// is an unknown value; apart from And and Or, any nil argument makes the
// result nil without evaluating the operator.
package scalar

import (
	"sort"
	"sync"

	dberror "relcore/pkg/error"
	"relcore/pkg/execution"
	"relcore/pkg/types"
)

// Operator is a named scalar operator with a fixed arity.
type Operator interface {
	Name() string
	Arity() int
	// Repeatable reports whether the same arguments always give the same
	// result.
	Repeatable() bool
	Invoke(args []types.Field) (types.Field, error)
}

// function is the Operator implementation shared by the built-ins.
type function struct {
	name string
	// arity is the exact number of arguments.
	arity int
	// nilAware operators receive nil arguments instead of short-circuiting.
	nilAware      bool
	nonRepeatable bool
	eval          func(args []types.Field) (types.Field, error)
}

func (f *function) Name() string     { return f.name }
func (f *function) Arity() int       { return f.arity }
func (f *function) Repeatable() bool { return !f.nonRepeatable }

func (f *function) Invoke(args []types.Field) (types.Field, error) {
	if len(args) != f.arity {
		return nil, dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "wrong number of arguments").
			WithDetail("%s takes %d, got %d", f.name, f.arity, len(args)).
			In("Invoke", f.name)
	}
	if !f.nilAware {
		for _, a := range args {
			if a == nil {
				return nil, nil
			}
		}
	}
	return f.eval(args)
}

func unary(name string, eval func(a types.Field) (types.Field, error)) *function {
	return &function{name: name, arity: 1, eval: func(args []types.Field) (types.Field, error) {
		return eval(args[0])
	}}
}

func binary(name string, eval func(a, b types.Field) (types.Field, error)) *function {
	return &function{name: name, arity: 2, eval: func(args []types.Field) (types.Field, error) {
		return eval(args[0], args[1])
	}}
}

func badArgument(operator string, args ...types.Field) error {
	kinds := make([]string, len(args))
	for i, a := range args {
		kinds[i] = a.Type().String()
	}
	return dberror.NewSystem(dberror.CodeInvalidOperatorArguments, "operator not defined for argument types").
		WithDetail("%s%v", operator, kinds).
		In("Invoke", operator)
}

// Registry resolves operators by name.
type Registry struct {
	mutex     sync.RWMutex
	operators map[string]Operator
}

// NewRegistry creates a registry holding the built-in operators. The
// random operators draw from ctx and are left out when ctx is nil.
func NewRegistry(ctx *execution.Context) *Registry {
	r := &Registry{operators: make(map[string]Operator)}
	for _, op := range builtins() {
		r.operators[op.Name()] = op
	}
	if ctx != nil {
		for _, op := range randomOperators(ctx) {
			r.operators[op.Name()] = op
		}
	}
	return r
}

// Register adds an operator. Names must be unique.
func (r *Registry) Register(op Operator) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.operators[op.Name()]; exists {
		return dberror.NewUser(dberror.CodeInvalidOperatorArguments, "operator already registered").
			WithDetail("operator %q", op.Name()).
			In("Register", "Registry")
	}
	r.operators[op.Name()] = op
	return nil
}

// Lookup returns the named operator.
func (r *Registry) Lookup(name string) (Operator, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	op, ok := r.operators[name]
	if !ok {
		return nil, dberror.NewUser(dberror.CodeOperatorNotFound, "operator not found").
			WithDetail("operator %q", name).
			In("Lookup", "Registry")
	}
	return op, nil
}

// Invoke looks up and invokes the named operator.
func (r *Registry) Invoke(name string, args ...types.Field) (types.Field, error) {
	op, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return op.Invoke(args)
}

// Names returns the registered operator names in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.operators))
	for name := range r.operators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtins() []Operator {
	var ops []Operator
	ops = append(ops, logicOperators()...)
	ops = append(ops, arithmeticOperators()...)
	ops = append(ops, bitwiseOperators()...)
	ops = append(ops, comparisonOperators()...)
	return ops
}
