package handler

import (
	"errors"

	"registrar/internal/client/models"
)

// ClientResponse is the HTTP representation of a client.
type ClientResponse struct {
	ID         string           `json:"id"`
	Class      string           `json:"class,omitempty"`
	Type       string           `json:"type,omitempty"`
	Label      string           `json:"label,omitempty"`
	Model      string           `json:"model,omitempty"`
	Time       string           `json:"time,omitempty"`
	Location   *models.Location `json:"location,omitempty"`
	IsVerified bool             `json:"is_verified"`
}

type ListResponse struct {
	Clients []*ClientResponse `json:"clients"`
}

type PermanenceResponse struct {
	Permanent bool `json:"permanent"`
}

type IsCurrentResponse struct {
	IsCurrent bool `json:"is_current"`
}

// VerificationRequest is the body of PUT .../verification.
type VerificationRequest struct {
	Verified bool `json:"verified"`
}

// FromClient converts a domain client to its response. The local storage key
// is not exposed.
func FromClient(c *models.Client) *ClientResponse {
	return &ClientResponse{
		ID:         c.ID.String(),
		Class:      string(c.Class),
		Type:       string(c.Type),
		Label:      c.Label,
		Model:      c.Model,
		Time:       c.Time,
		Location:   c.Location,
		IsVerified: c.Meta.IsVerified,
	}
}

func FromClients(clients []*models.Client) ListResponse {
	resp := ListResponse{Clients: make([]*ClientResponse, 0, len(clients))}
	for _, c := range clients {
		resp.Clients = append(resp.Clients, FromClient(c))
	}
	return resp
}

func asClientError(err error) (*models.ClientError, bool) {
	var ce *models.ClientError
	ok := errors.As(err, &ce)
	return ce, ok
}
