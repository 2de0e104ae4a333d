package logging

import (
	"log/slog"
)

// WithTable creates a logger with table context.
// Use this for base table scans and writes.
//
// Example:
//
//	log := logging.WithTable("orders")
//	log.Info("row inserted", "row_id", id)
func WithTable(tableName string) *slog.Logger {
	return GetLogger().With("table", tableName)
}

// WithOperator creates a logger with operator context.
// Every derived cursor and propagation routine logs through one of these.
//
// Example:
//
//	log := logging.WithOperator("union")
//	log.Debug("routing insert", "branch", "left")
func WithOperator(operator string) *slog.Logger {
	return GetLogger().With("operator", operator)
}

// WithPlan creates a logger tagged with a plan identifier.
func WithPlan(planID string) *slog.Logger {
	return GetLogger().With("plan_id", planID)
}

// WithPlanOperator creates a logger with both plan and operator context.
func WithPlanOperator(planID, operator string) *slog.Logger {
	return GetLogger().With("plan_id", planID, "operator", operator)
}

// WithComponent creates a logger with component/subsystem context.
//
// Example:
//
//	log := logging.WithComponent("binder")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
// Use this when logging errors to include the error in structured format.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("operation failed", "operation", "insert")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
