package models

import (
	id "registrar/pkg/domain"
)

// PrimaryKeyCurrentClient is the well-known local key of the persisted current
// client. It can never collide with a "{userID}@{clientID}" key since it has no "@".
const PrimaryKeyCurrentClient = "local_identity"

// ClassType is the device class reported by the backend. Informational only.
type ClassType string

const (
	ClassDesktop   ClassType = "desktop"
	ClassPhone     ClassType = "phone"
	ClassTablet    ClassType = "tablet"
	ClassLegalHold ClassType = "legalhold"
	ClassUnknown   ClassType = "unknown"
)

// ParseClassType maps a raw class string, defaulting to ClassUnknown.
func ParseClassType(s string) ClassType {
	switch c := ClassType(s); c {
	case ClassDesktop, ClassPhone, ClassTablet, ClassLegalHold:
		return c
	default:
		return ClassUnknown
	}
}

// ClientType decides the trust and permanence semantics of a client.
type ClientType string

const (
	ClientTypePermanent ClientType = "permanent"
	ClientTypeTemporary ClientType = "temporary"
)

// IsValid reports whether t is one of the known client types.
func (t ClientType) IsValid() bool {
	return t == ClientTypePermanent || t == ClientTypeTemporary
}

// Location is the approximate registration location reported by the backend.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Meta carries local-only bookkeeping. It never comes from the backend.
type Meta struct {
	IsVerified bool   `json:"is_verified"`
	PrimaryKey string `json:"primary_key,omitempty"`
}

// Client is one registered E2EE endpoint.
//
// Invariants:
//   - ID is assigned by the backend and immutable once set
//   - a Client without ID can never become the current client
//   - Meta.IsVerified is changed by local trust decisions only, never derived from Type
type Client struct {
	ID       id.ClientID `json:"id"`
	Class    ClassType   `json:"class,omitempty"`
	Type     ClientType  `json:"type,omitempty"`
	Label    string      `json:"label,omitempty"`
	Model    string      `json:"model,omitempty"`
	Address  string      `json:"address,omitempty"`
	Time     string      `json:"time,omitempty"`
	Location *Location   `json:"location,omitempty"`
	Meta     Meta        `json:"meta"`
}

// IsPermanent reports whether the record itself says permanent.
// Host environment overrides are applied by the service, not here.
func (c *Client) IsPermanent() bool {
	return c.Type == ClientTypePermanent
}

// Clone returns a deep copy so callers never share the stored pointer.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Location != nil {
		loc := *c.Location
		cp.Location = &loc
	}
	return &cp
}

// MergeRemote applies backend-authoritative identity and type fields over c,
// keeping local Meta. The result is a new record.
func (c *Client) MergeRemote(remote *Client) *Client {
	merged := remote.Clone()
	merged.Meta = c.Meta
	return merged
}
