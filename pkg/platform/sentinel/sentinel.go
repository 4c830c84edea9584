package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Local stores and the backend
// adapter return these (optionally wrapped) so the client service can
// translate them into registry outcomes.
//
// For caller contract violations (missing IDs, no current client) use the
// client error kinds in internal/client/models instead.
var (
	ErrNotFound    = errors.New("not found")
	ErrMalformed   = errors.New("malformed record")
	ErrUnavailable = errors.New("unavailable")
)
