package models

import (
	id "registrar/pkg/domain"
)

// Payload is a raw client as returned by the backend or persisted locally.
type Payload struct {
	ID       string    `json:"id"`
	Class    string    `json:"class,omitempty"`
	Type     string    `json:"type,omitempty"`
	Label    string    `json:"label,omitempty"`
	Model    string    `json:"model,omitempty"`
	Address  string    `json:"address,omitempty"`
	Time     string    `json:"time,omitempty"`
	Location *Location `json:"location,omitempty"`
	Meta     *Meta     `json:"meta,omitempty"`
}

// MapClient converts a payload into a Client.
//
// The backend only reports a type for the self user's clients; for those a
// missing or unknown type means temporary. Remote clients keep an empty type.
func MapClient(p Payload, isSelfClient bool) *Client {
	c := &Client{
		ID:      id.ClientID(p.ID),
		Class:   ParseClassType(p.Class),
		Label:   p.Label,
		Model:   p.Model,
		Address: p.Address,
		Time:    p.Time,
	}
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	if p.Meta != nil {
		c.Meta = *p.Meta
	}
	if t := ClientType(p.Type); t.IsValid() {
		c.Type = t
	} else if isSelfClient {
		c.Type = ClientTypeTemporary
	}
	return c
}

// MapClients maps every payload, preserving order and length.
func MapClients(payloads []Payload, isSelfClient bool) []*Client {
	clients := make([]*Client, 0, len(payloads))
	for _, p := range payloads {
		clients = append(clients, MapClient(p, isSelfClient))
	}
	return clients
}
