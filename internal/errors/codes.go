// Package errors provides structured error handling for the retrieval engine.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Store and index errors
//   - 3XX: Oracle and network errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category classifies errors for logging and handling decisions.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStore indicates chunk store and index errors.
	CategoryStore Category = "STORE"
	// CategoryOracle indicates generation-oracle and network errors.
	CategoryOracle Category = "ORACLE"
	// CategoryValidation indicates caller input errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityError indicates the operation failed but the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Store and index errors (200-299)
	ErrCodeParentNotFound    = "ERR_201_PARENT_NOT_FOUND"
	ErrCodeStoreClosed       = "ERR_202_STORE_CLOSED"
	ErrCodeIndexWrite        = "ERR_203_INDEX_WRITE"
	ErrCodeIndexSearch       = "ERR_204_INDEX_SEARCH"
	ErrCodeDimensionMismatch = "ERR_205_DIMENSION_MISMATCH"

	// Oracle and network errors (300-399)
	ErrCodeOracleTimeout     = "ERR_301_ORACLE_TIMEOUT"
	ErrCodeOracleUnavailable = "ERR_302_ORACLE_UNAVAILABLE"
	ErrCodeOracleMalformed   = "ERR_303_ORACLE_MALFORMED"
	ErrCodeEmbedFailed       = "ERR_304_EMBED_FAILED"

	// Validation errors (400-499)
	ErrCodeEmptyQuestion   = "ERR_401_EMPTY_QUESTION"
	ErrCodeInvalidInput    = "ERR_402_INVALID_INPUT"
	ErrCodeMissingDocument = "ERR_403_MISSING_DOCUMENT"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from the numeric range of a code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryOracle
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// isRetryableCode reports whether an operation failing with this code may
// succeed on retry. Only transient oracle/network failures qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeOracleTimeout, ErrCodeOracleUnavailable, ErrCodeEmbedFailed:
		return true
	default:
		return false
	}
}
