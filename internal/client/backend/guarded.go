package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"registrar/internal/client/models"
	id "registrar/pkg/domain"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/sentinel"
)

// Authority is the backend surface the guard protects.
type Authority interface {
	GetClient(ctx context.Context, clientID id.ClientID) (models.Payload, error)
	ListClients(ctx context.Context, userID id.UserID) ([]models.Payload, error)
}

// ErrCircuitOpen is returned without calling the backend while it is
// considered down. It matches sentinel.ErrUnavailable.
var ErrCircuitOpen = fmt.Errorf("%w: backend circuit open", sentinel.ErrUnavailable)

// Guarded fails fast while the backend keeps failing. Any definite answer,
// including 404, counts as a success.
type Guarded struct {
	next    Authority
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next Authority, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) GetClient(ctx context.Context, clientID id.ClientID) (models.Payload, error) {
	if !g.breaker.Allow() {
		return models.Payload{}, ErrCircuitOpen
	}
	payload, err := g.next.GetClient(ctx, clientID)
	g.record(ctx, err)
	return payload, err
}

func (g *Guarded) ListClients(ctx context.Context, userID id.UserID) ([]models.Payload, error) {
	if !g.breaker.Allow() {
		return nil, ErrCircuitOpen
	}
	payloads, err := g.next.ListClients(ctx, userID)
	g.record(ctx, err)
	return payloads, err
}

func (g *Guarded) record(ctx context.Context, err error) {
	if answered(err) {
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "backend circuit closed", "breaker", g.breaker.Name())
		}
		return
	}
	if _, change := g.breaker.RecordFailure(); change.Opened {
		g.logger.WarnContext(ctx, "backend circuit opened", "breaker", g.breaker.Name(), "error", err)
	}
}

// answered reports whether the backend gave a definite response: success or
// a client error other than rate limiting.
func answered(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= http.StatusBadRequest && se.Status < http.StatusInternalServerError &&
			se.Status != http.StatusTooManyRequests
	}
	return false
}
