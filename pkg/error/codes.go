package error

// Error codes raised by the operator core. User-severity codes are listed
// first; they are expected conditions a caller may catch.
const (
	CodeRowViolatesDifferencePredicate = "ROW_VIOLATES_DIFFERENCE_PREDICATE"
	CodeRowViolatesQuotaPredicate      = "ROW_VIOLATES_QUOTA_PREDICATE"
	CodeInvalidRowExtractorExpression  = "INVALID_ROW_EXTRACTOR_EXPRESSION"
	CodeInvalidSearchLength            = "INVALID_SEARCH_LENGTH"
	CodeDuplicateKey                   = "DUPLICATE_KEY"
	CodeRowNotFound                    = "ROW_NOT_FOUND"
	CodeConstraintViolation            = "CONSTRAINT_VIOLATION"
	CodeExplodeCycle                   = "EXPLODE_CYCLE"
	CodeDivisionByZero                 = "DIVISION_BY_ZERO"

	// Compile-time codes abort binding.
	CodeColumnNotFound                 = "COLUMN_NOT_FOUND"
	CodeDuplicateRenameTarget          = "DUPLICATE_RENAME_TARGET"
	CodeNonRepeatableAggregationSource = "NON_REPEATABLE_AGGREGATION_SOURCE"
	CodeSchemaMismatch                 = "SCHEMA_MISMATCH"
	CodeInvalidOperatorArguments       = "INVALID_OPERATOR_ARGUMENTS"
	CodeMissingGeneratorTable          = "MISSING_GENERATOR_TABLE"
	CodeInvalidGeneratorTable          = "INVALID_GENERATOR_TABLE"
	CodeOperatorNotFound               = "OPERATOR_NOT_FOUND"

	// System codes.
	CodeNoCurrentRow           = "NO_CURRENT_ROW"
	CodeCursorNotOpen          = "CURSOR_NOT_OPEN"
	CodeCapabilityNotSupported = "CAPABILITY_NOT_SUPPORTED"
	CodeNotUpdateable          = "NOT_UPDATEABLE"
	CodeTypeConversion         = "TYPE_CONVERSION"
)
