package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Fetch errors (1xxx)
	ErrCodeFetchFailed          ErrorCode = "FLWE1001"
	ErrCodeFetchTimeout         ErrorCode = "FLWE1002"
	ErrCodeAuthenticationFailed ErrorCode = "FLWE1003"
	ErrCodeUpstreamUnavailable  ErrorCode = "FLWE1004"
	ErrCodeUnexpectedResponse   ErrorCode = "FLWE1005"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound   ErrorCode = "FLWE2001"
	ErrCodeConfigInvalid    ErrorCode = "FLWE2002"
	ErrCodeConfigMissing    ErrorCode = "FLWE2003"
	ErrCodeConfigPermission ErrorCode = "FLWE2004"

	// Store errors (4xxx)
	ErrCodeStoreOpen        ErrorCode = "FLWE4001"
	ErrCodeStoreMigration   ErrorCode = "FLWE4002"
	ErrCodeStoreQuery       ErrorCode = "FLWE4003"
	ErrCodeStoreTransaction ErrorCode = "FLWE4004"

	// File system errors (5xxx)
	ErrCodeFileNotFound   ErrorCode = "FLWE5001"
	ErrCodeFilePermission ErrorCode = "FLWE5002"
	ErrCodeFileOperation  ErrorCode = "FLWE5005"

	// Input errors (6xxx)
	ErrCodeSchema       ErrorCode = "FLWE6001"
	ErrCodeTypeMismatch ErrorCode = "FLWE6002"
	ErrCodeInvalidInput ErrorCode = "FLWE6003"

	// Security errors (7xxx)
	ErrCodeEncryptionFailed  ErrorCode = "FLWE7001"
	ErrCodeCredentialMissing ErrorCode = "FLWE7002"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "FLWE9001"
	ErrCodeJoinInvariant      ErrorCode = "FLWE9002"
	ErrCodeMaxRetriesExceeded ErrorCode = "FLWE9003"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // the run cannot produce a trustworthy result
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", e.Code, e.Severity, e.Message)

	if e.Cause != nil {
		fmt.Fprintf(&b, "\nCaused by: %v", e.Cause)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			fmt.Fprintf(&b, "\n  %d. %s", i+1, suggestion)
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var inner *AppError
	if errors.As(err, &inner) {
		for k, v := range inner.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// SchemaError reports a required column missing from an input table.
func SchemaError(table, column string) *AppError {
	return New(ErrCodeSchema, fmt.Sprintf("table %q is missing required column %q", table, column)).
		WithSeverity(SeverityCritical).
		WithContext("table", table).
		WithContext("column", column).
		WithSuggestions(
			"Check the header row of the input file",
			"Column names are matched case-insensitively with spaces treated as underscores",
		)
}

// TypeMismatch reports a cell that cannot be parsed under its declared kind.
// Row numbers are 1-based and exclude the header.
func TypeMismatch(table, column string, row int, value, kind string, cause error) *AppError {
	err := New(ErrCodeTypeMismatch, fmt.Sprintf("%s.%s row %d: cannot parse %q as %s", table, column, row, value, kind)).
		WithSeverity(SeverityCritical).
		WithContext("table", table).
		WithContext("column", column).
		WithContext("row", row).
		WithContext("value", value).
		WithContext("kind", kind)
	err.Cause = cause
	return err
}

// JoinInvariantError reports a production record whose group has no grace period entry.
func JoinInvariantError(key interface{}) *AppError {
	return New(ErrCodeJoinInvariant, "production record has no grace period entry").
		WithSeverity(SeverityCritical).
		WithContext("group", fmt.Sprint(key))
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'flarewatch config show' to inspect the effective configuration",
		)
}

// StoreError wraps a database failure.
func StoreError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeStoreQuery, message)
	if err == nil {
		err = New(ErrCodeStoreQuery, message)
	}
	if query != "" {
		_ = err.WithContext("query", truncateString(query, 200))
	}
	if cause != nil && strings.Contains(strings.ToLower(cause.Error()), "locked") {
		_ = err.AsRecoverable().WithSuggestions("Another process is writing to the store, retry shortly")
	}
	return err
}

// FetchError wraps a failed request to the upstream publisher.
func FetchError(message, url string, cause error) *AppError {
	err := Wrap(cause, ErrCodeFetchFailed, message)
	if err == nil {
		err = New(ErrCodeFetchFailed, message)
	}
	return err.WithContext("url", url).
		WithSuggestions(
			"Check your network connection",
			"Verify the fetch.base_url setting",
		)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// As is errors.As from the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
