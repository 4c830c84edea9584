package models

import (
	"errors"
	"fmt"

	dErrors "registrar/pkg/domain-errors"
)

// ErrorKind is the closed set of client registry failures.
type ErrorKind int

const (
	// KindMissingUserID: a user ID argument was empty.
	KindMissingUserID ErrorKind = iota + 1
	// KindMissingClientID: a client ID argument was empty.
	KindMissingClientID
	// KindClientNotSet: the operation needs a current client and none is set.
	KindClientNotSet
	// KindNoValidClient: no trustworthy local client; proceed to registration.
	KindNoValidClient
	// KindDatabaseFailure: validity is unknown; local state must be kept.
	KindDatabaseFailure
	// KindCurrentClientDeletion: the current client cannot be deleted as a remote client.
	KindCurrentClientDeletion
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingUserID:
		return "missing_user_id"
	case KindMissingClientID:
		return "missing_client_id"
	case KindClientNotSet:
		return "client_not_set"
	case KindNoValidClient:
		return "no_valid_client"
	case KindDatabaseFailure:
		return "database_failure"
	case KindCurrentClientDeletion:
		return "current_client_deletion"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Code maps the kind onto the shared domain error codes.
func (k ErrorKind) Code() dErrors.Code {
	switch k {
	case KindMissingUserID, KindMissingClientID:
		return dErrors.CodeBadRequest
	case KindClientNotSet, KindCurrentClientDeletion:
		return dErrors.CodeConflict
	case KindNoValidClient:
		return dErrors.CodeNotFound
	case KindDatabaseFailure:
		return dErrors.CodeUnavailable
	default:
		return dErrors.CodeInternal
	}
}

var defaultMessages = map[ErrorKind]string{
	KindMissingUserID:         "user ID is not defined",
	KindMissingClientID:       "client ID is not defined",
	KindClientNotSet:          "current client is not set",
	KindNoValidClient:         "no valid local client",
	KindDatabaseFailure:       "local client could not be validated",
	KindCurrentClientDeletion: "current client cannot be deleted",
}

// ClientError is returned by every client registry operation.
type ClientError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// NewClientError creates an error with the default message for kind.
func NewClientError(kind ErrorKind) *ClientError {
	return &ClientError{Kind: kind, Message: defaultMessages[kind]}
}

// WrapClientError creates an error of kind carrying cause.
func WrapClientError(kind ErrorKind, cause error) *ClientError {
	return &ClientError{Kind: kind, Message: defaultMessages[kind], Cause: cause}
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("client %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("client %s: %s", e.Kind, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Code lets the transport layer translate without knowing the kinds.
func (e *ClientError) Code() dErrors.Code {
	return e.Kind.Code()
}

// KindOf extracts the kind of a ClientError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries a ClientError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
