// Package execution is the root of relcore's operator execution core.
//
// The core uses a cursor model: every operator implements the cursor
// contract from [relcore/pkg/cursor] with Open / Next / Select / Close and
// the mutation hooks Insert / Update / Delete / Default / Change / Validate.
// Operators are composed into a tree; calling Next on the root pulls one row
// at a time through the pipeline, while mutations descend from the root into
// the sources under each operator's propagation policy.
//
// # Sub-packages
//
//   - [relcore/pkg/execution/propagate]   – PropagateAction policies and the
//     user-versus-fault result classification used by predicate enforcement.
//   - [relcore/pkg/execution/query]       – Project, Remove, Rename, Quota,
//     Explode, Restrict and the sort used to satisfy requested orders.
//   - [relcore/pkg/execution/aggregation] – Aggregate with restrict-and-recompute
//     grouping and the Count, Sum, Min, Max, Avg, All and Any calculators.
//   - [relcore/pkg/execution/setops]      – Union, Difference and table
//     comparison.
//   - [relcore/pkg/execution/extract]     – Row and column extraction, Exists,
//     and conversion between lists and tables.
//   - [relcore/pkg/execution/scalar]      – The uniform scalar operator
//     contract with three-valued logic.
//
// # Execution flow
//
// The plan package binds an operator tree once: metadata and capabilities
// are derived bottom-up, compile errors abort the bind, and the root is
// materialized if the caller asked for more than it can provide. The caller
// then opens the root and drives it. Context carries the request identity,
// the request logger and the seedable random source.
package execution
