package clients

import "fmt"

// StatusError reports a failed collaborator call. Code carries the upstream
// HTTP status verbatim so the boundary can surface it unmodified.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Code)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Code, e.Message)
}
