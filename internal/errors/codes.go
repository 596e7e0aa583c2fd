// Package errors provides structured error handling for typemap.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO and container driver errors
//   - 4XX: Validation errors
//   - 5XX: Internal and scanner errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file, archive and driver errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a caller mistake, the operation must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the scan can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound     = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid      = "ERR_102_CONFIG_INVALID"
	ErrCodeIndexNotConfigured = "ERR_103_INDEX_NOT_CONFIGURED"

	// IO errors (200-299)
	ErrCodeLocatorNotFound  = "ERR_201_LOCATOR_NOT_FOUND"
	ErrCodeNoMatchingDriver = "ERR_202_NO_MATCHING_DRIVER"
	ErrCodeContainerOpen    = "ERR_203_CONTAINER_OPEN"
	ErrCodeEntryRead        = "ERR_204_ENTRY_READ"
	ErrCodeEntryOutOfOrder  = "ERR_205_ENTRY_OUT_OF_ORDER"
	ErrCodeArchiveCorrupt   = "ERR_206_ARCHIVE_CORRUPT"
	ErrCodeNestedTooLarge   = "ERR_207_NESTED_TOO_LARGE"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidFilter  = "ERR_402_INVALID_FILTER"
	ErrCodeInvalidLocator = "ERR_403_INVALID_LOCATOR"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeExtractFailed  = "ERR_502_EXTRACT_FAILED"
	ErrCodeScannerFailed  = "ERR_503_SCANNER_FAILED"
	ErrCodeScannerPanic   = "ERR_504_SCANNER_PANIC"
	ErrCodeResolverFailed = "ERR_505_RESOLVER_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "103" from "ERR_103_INDEX_NOT_CONFIGURED"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
// Only configuration lookups and driver misuse abort the caller; everything
// else is recovered locally by the scan.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexNotConfigured, ErrCodeEntryOutOfOrder, ErrCodeConfigInvalid:
		return SeverityFatal
	case ErrCodeLocatorNotFound, ErrCodeNoMatchingDriver, ErrCodeScannerFailed, ErrCodeResolverFailed:
		return SeverityWarning
	}
	return SeverityError
}
