package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypemapError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("permission denied")

	// When: wrapping with TypemapError
	err := New(ErrCodeContainerOpen, "open lib.jar", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestTypemapError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		cause    error
		expected string
	}{
		{
			name:     "no cause",
			code:     ErrCodeNoMatchingDriver,
			message:  "no matching driver for locator x.foo",
			expected: "[ERR_202_NO_MATCHING_DRIVER] no matching driver for locator x.foo",
		},
		{
			name:     "with cause",
			code:     ErrCodeContainerOpen,
			message:  "open lib.jar",
			cause:    errors.New("zip: not a valid zip file"),
			expected: "[ERR_203_CONTAINER_OPEN] open lib.jar: zip: not a valid zip file",
		},
		{
			name:     "wrapped cause same message",
			code:     ErrCodeInternal,
			message:  "boom",
			cause:    errors.New("boom"),
			expected: "[ERR_501_INTERNAL] boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.cause)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestTypemapError_Is_MatchesSentinelByCode(t *testing.T) {
	// Given: an error built deep inside a call chain
	err := fmt.Errorf("query subtypes: %w", Newf(ErrCodeIndexNotConfigured, "index %s was not configured", "NoSuchIndex"))

	// Then: it matches the sentinel but not unrelated ones
	assert.True(t, errors.Is(err, ErrIndexNotConfigured))
	assert.False(t, errors.Is(err, ErrOutOfOrder))
}

func TestTypemapError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeIndexNotConfigured, CategoryConfig},
		{ErrCodeNoMatchingDriver, CategoryIO},
		{ErrCodeEntryOutOfOrder, CategoryIO},
		{ErrCodeInvalidFilter, CategoryValidation},
		{ErrCodeScannerPanic, CategoryInternal},
		{"bad", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestTypemapError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeIndexNotConfigured, SeverityFatal},
		{ErrCodeEntryOutOfOrder, SeverityFatal},
		{ErrCodeNoMatchingDriver, SeverityWarning},
		{ErrCodeScannerFailed, SeverityWarning},
		{ErrCodeArchiveCorrupt, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestIsFatal_LooksThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("read entry: %w", New(ErrCodeEntryOutOfOrder, "entry 2 opened after entry 3", nil))

	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsFatal(New(ErrCodeLocatorNotFound, "missing", nil)))
	assert.False(t, IsFatal(errors.New("plain")))
	assert.False(t, IsFatal(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeEntryRead, GetCode(fmt.Errorf("x: %w", IOError("read failed", nil))))
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, CategoryConfig, GetCategory(ConfigError("bad", nil)))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWithDetailAndSuggestion(t *testing.T) {
	err := New(ErrCodeNoMatchingDriver, "no driver", nil).
		WithDetail("locator", "/tmp/x.rar").
		WithSuggestion("register a driver for .rar files")

	assert.Equal(t, "/tmp/x.rar", err.Details["locator"])
	assert.Equal(t, "register a driver for .rar files", err.Suggestion)
}

func TestFormatForCLI(t *testing.T) {
	err := New(ErrCodeContainerOpen, "open lib.jar", errors.New("not a zip")).
		WithSuggestion("check the archive")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: open lib.jar")
	assert.Contains(t, out, "Cause: not a zip")
	assert.Contains(t, out, "Hint: check the archive")
	assert.Contains(t, out, "Code: ERR_203_CONTAINER_OPEN")
	assert.Contains(t, FormatForCLI(errors.New("plain")), "Code: ERR_501_INTERNAL")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	data, err := FormatJSON(New(ErrCodeArchiveCorrupt, "bad header", nil).WithDetail("entry", "a/B.class"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeArchiveCorrupt, decoded["code"])
	assert.Equal(t, "IO", decoded["category"])
	assert.Equal(t, map[string]any{"entry": "a/B.class"}, decoded["details"])
}

func TestLogAttrs(t *testing.T) {
	attrs := LogAttrs(New(ErrCodeScannerFailed, "scan failed", errors.New("eof")).WithDetail("path", "a/B.java"))
	assert.Len(t, attrs, 5)
	assert.Len(t, LogAttrs(errors.New("plain")), 1)
	assert.Nil(t, LogAttrs(nil))
}
