package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalService = errors.New("external service error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTransient       = errors.New("transient failure")
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

// ErrorDetails captures the user-facing portions of a service error.
type ErrorDetails struct {
	Message string
}

// Details extracts a presentable message from a wrapped service error.
// The sentinel prefix is stripped so queue error messages read naturally.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	message := err.Error()
	for _, marker := range []error{ErrExternalService, ErrValidation, ErrConfiguration, ErrNotFound, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(message, prefix) {
			message = strings.TrimPrefix(message, prefix)
			break
		}
	}
	return ErrorDetails{Message: strings.TrimSpace(message)}
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
