package service

import (
	"context"
	"errors"
	"fmt"

	"registrar/internal/client/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/sentinel"
)

// ConstructPrimaryKey builds the local store key "{userID}@{clientID}".
// The user ID is checked before the client ID.
func ConstructPrimaryKey(userID id.UserID, clientID id.ClientID) (string, error) {
	if userID.IsNil() {
		return "", models.NewClientError(models.KindMissingUserID)
	}
	if clientID.IsNil() {
		return "", models.NewClientError(models.KindMissingClientID)
	}
	return fmt.Sprintf("%s@%s", userID, clientID), nil
}

// SetCurrentClient replaces the current client. The record is copied; later
// changes to client do not leak in.
func (s *Service) SetCurrentClient(client *models.Client) error {
	if client == nil || client.ID.IsNil() {
		return models.NewClientError(models.KindMissingClientID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = client.Clone()
	return nil
}

// CurrentClient returns a snapshot of the current client, or nil when unset.
func (s *Service) CurrentClient() *models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// ClearCurrentClient unsets the current client.
func (s *Service) ClearCurrentClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Service) SetSelfUserID(userID id.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfUserID = userID
}

func (s *Service) SelfUserID() id.UserID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selfUserID
}

// IsCurrentClient reports whether (userID, clientID) names this instance's
// client. Partial matches are false, not errors.
func (s *Service) IsCurrentClient(userID id.UserID, clientID id.ClientID) (bool, error) {
	s.mu.RLock()
	current, self := s.current, s.selfUserID
	s.mu.RUnlock()

	if current == nil {
		return false, models.NewClientError(models.KindClientNotSet)
	}
	if userID.IsNil() {
		return false, models.NewClientError(models.KindMissingUserID)
	}
	if clientID.IsNil() {
		return false, models.NewClientError(models.KindMissingClientID)
	}
	return current.ID == clientID && self == userID, nil
}

// GetClientsByUserID fetches and maps a user's clients from the backend.
// The result has exactly as many entries as the backend returned, in order.
func (s *Service) GetClientsByUserID(ctx context.Context, userID id.UserID) ([]*models.Client, error) {
	if userID.IsNil() {
		return nil, models.NewClientError(models.KindMissingUserID)
	}
	ctx, span := tracer.Start(ctx, "client.GetClientsByUserID")
	defer span.End()

	payloads, err := s.authority.ListClients(ctx, userID)
	if err != nil {
		span.RecordError(err)
		err = fmt.Errorf("list clients of user %s: %w", userID, err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "client backend unavailable")
	}
	return models.MapClients(payloads, userID == s.SelfUserID()), nil
}
