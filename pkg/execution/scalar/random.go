package scalar

import (
	"relcore/pkg/execution"
	"relcore/pkg/types"
)

// randomOperators draw from the context's generator, so a seeded context
// gives a reproducible sequence. None of them is repeatable.
func randomOperators(ctx *execution.Context) []Operator {
	random := &function{name: "random", nonRepeatable: true, eval: func([]types.Field) (types.Field, error) {
		return floatResult(ctx.Float64())
	}}

	randomInt := unary("randomint", func(a types.Field) (types.Field, error) {
		n, ok := a.(*types.IntField)
		if !ok || n.Value <= 0 {
			return nil, badArgument("randomint", a)
		}
		return intResult(ctx.Int63n(n.Value))
	})
	randomInt.nonRepeatable = true

	return []Operator{random, randomInt}
}
