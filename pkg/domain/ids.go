package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "registrar/pkg/domain-errors"
)

// maxClientIDLength bounds client identifiers handed out by the backend.
const maxClientIDLength = 64

// UserID identifies the account that owns a set of clients.
// The backend issues user IDs as UUIDs; the zero value is "not set".
type UserID string

// ClientID identifies one registered E2EE endpoint of a user.
// Client IDs are short lowercase hex strings assigned by the backend.
type ClientID string

// ParseUserID validates a user ID at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user ID cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid user ID format")
	}
	if parsed == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "user ID cannot be nil")
	}
	return UserID(parsed.String()), nil
}

// ParseClientID validates a client ID at a trust boundary.
// Uppercase hex is normalized to lowercase.
func ParseClientID(s string) (ClientID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "client ID cannot be empty")
	}
	if len(s) > maxClientIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "client ID too long")
	}
	normalized := strings.ToLower(s)
	for _, r := range normalized {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid client ID format")
		}
	}
	return ClientID(normalized), nil
}

func (u UserID) String() string { return string(u) }

// IsNil reports whether the user ID is unset.
func (u UserID) IsNil() bool { return u == "" }

func (c ClientID) String() string { return string(c) }

// IsNil reports whether the client ID is unset.
func (c ClientID) IsNil() bool { return c == "" }
