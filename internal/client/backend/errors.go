package backend

import (
	"fmt"
	"net/http"

	"registrar/pkg/platform/sentinel"
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Status int
	Label  string
	Path   string
}

func (e *StatusError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("backend %s: status %d (%s)", e.Path, e.Status, e.Label)
	}
	return fmt.Sprintf("backend %s: status %d", e.Path, e.Status)
}

// Is lets callers match backend statuses against infrastructure sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case sentinel.ErrNotFound:
		return e.Status == http.StatusNotFound
	case sentinel.ErrUnavailable:
		return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
	}
	return false
}
