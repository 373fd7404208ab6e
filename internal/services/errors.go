package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorKind is the coarse classification attached to wrapped errors.
type ErrorKind string

const (
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindTransient     ErrorKind = "transient"
)

// ErrorDetails carries the classification and display message extracted from
// a wrapped stage error.
type ErrorDetails struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Details classifies err against the sentinel markers and strips the marker
// prefix from the display message.
func Details(err error) ErrorDetails {
	details := ErrorDetails{Kind: KindTransient, Cause: err}
	if err == nil {
		return ErrorDetails{Kind: KindTransient}
	}
	switch {
	case errors.Is(err, ErrValidation):
		details.Kind = KindValidation
	case errors.Is(err, ErrNotFound):
		details.Kind = KindNotFound
	case errors.Is(err, ErrConflict):
		details.Kind = KindConflict
	case errors.Is(err, ErrConfiguration):
		details.Kind = KindConfiguration
	case errors.Is(err, ErrExternalTool):
		details.Kind = KindExternalTool
	}
	details.Message = stripMarkerPrefix(err.Error())
	return details
}

func stripMarkerPrefix(message string) string {
	for _, marker := range []error{ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrConflict, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(message, prefix) {
			return strings.TrimPrefix(message, prefix)
		}
	}
	return message
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
