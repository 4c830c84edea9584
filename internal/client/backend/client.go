// Package backend talks to the remote identity authority that owns client
// registrations.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"registrar/internal/client/models"
	id "registrar/pkg/domain"
)

const defaultTimeout = 10 * time.Second

var tracer = otel.Tracer("registrar/client/backend")

// Config configures the backend client.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client implements the client service's Authority over HTTP.
type Client struct {
	http *resty.Client
}

// errorBody is the backend's JSON error envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// New creates a backend client. BaseURL is required.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}
	return &Client{http: rc}, nil
}

// GetClient fetches one of the self user's clients. A deleted or unknown
// client yields a *StatusError with status 404.
func (c *Client) GetClient(ctx context.Context, clientID id.ClientID) (models.Payload, error) {
	ctx, span := tracer.Start(ctx, "backend.GetClient")
	defer span.End()
	span.SetAttributes(attribute.String("client_id", clientID.String()))

	var payload models.Payload
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("clientID", clientID.String()).
		SetResult(&payload).
		Get("/clients/{clientID}")
	if err = checkResponse(resp, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get client failed")
		return models.Payload{}, err
	}
	return payload, nil
}

// ListClients fetches the clients registered for a user.
func (c *Client) ListClients(ctx context.Context, userID id.UserID) ([]models.Payload, error) {
	ctx, span := tracer.Start(ctx, "backend.ListClients")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID.String()))

	var payloads []models.Payload
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("userID", userID.String()).
		SetResult(&payloads).
		Get("/users/{userID}/clients")
	if err = checkResponse(resp, err); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list clients failed")
		return nil, err
	}
	span.SetAttributes(attribute.Int("client_count", len(payloads)))
	return payloads, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	se := &StatusError{Status: resp.StatusCode(), Path: resp.Request.URL}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		se.Label = body.Label
	}
	return se
}
