package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var te *TypemapError
	if !stderrors.As(err, &te) {
		te = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", te.Message))
	if te.Cause != nil && te.Cause.Error() != te.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %s\n", te.Cause))
	}
	if te.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", te.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", te.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	var te *TypemapError
	if !stderrors.As(err, &te) {
		te = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       te.Code,
		Message:    te.Message,
		Category:   string(te.Category),
		Severity:   string(te.Severity),
		Details:    te.Details,
		Suggestion: te.Suggestion,
	}
	if te.Cause != nil {
		je.Cause = te.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err, for use as
// logger.Warn("msg", errors.LogAttrs(err)...).
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	var te *TypemapError
	if !stderrors.As(err, &te) {
		return []any{slog.String("error", err.Error())}
	}

	attrs := []any{
		slog.String("error_code", te.Code),
		slog.String("error", te.Message),
		slog.String("severity", string(te.Severity)),
	}
	if te.Cause != nil {
		attrs = append(attrs, slog.String("cause", te.Cause.Error()))
	}

	keys := make([]string, 0, len(te.Details))
	for k := range te.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, te.Details[k]))
	}

	return attrs
}
