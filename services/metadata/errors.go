package metadata

import (
	"errors"
	"fmt"
)

// ErrNotImplemented for operations the service deliberately does not support
// yet (collection and private-pair deletes).
var ErrNotImplemented = errors.New("not implemented")

// ValidationError rejects a malformed request before any collaborator call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
