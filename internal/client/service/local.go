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

// SaveClient persists a client of userID under its composite key and returns
// the stored copy with Meta.PrimaryKey stamped.
func (s *Service) SaveClient(ctx context.Context, userID id.UserID, client *models.Client) (*models.Client, error) {
	if client == nil {
		return nil, models.NewClientError(models.KindMissingClientID)
	}
	key, err := ConstructPrimaryKey(userID, client.ID)
	if err != nil {
		return nil, err
	}
	stored := client.Clone()
	stored.Meta.PrimaryKey = key
	if err := s.saveLocal(ctx, key, stored); err != nil {
		return nil, models.WrapClientError(models.KindDatabaseFailure, err)
	}
	return stored, nil
}

// SyncClients refreshes the local records of userID's clients from the
// backend. Local verification decisions survive the refresh; this instance's
// own client stays under the current client key and is skipped.
func (s *Service) SyncClients(ctx context.Context, userID id.UserID) ([]*models.Client, error) {
	clients, err := s.GetClientsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	synced := make([]*models.Client, 0, len(clients))
	for _, client := range clients {
		if client.ID.IsNil() {
			continue
		}
		if isCurrent, _ := s.IsCurrentClient(userID, client.ID); isCurrent {
			continue
		}
		existing, err := s.LoadClient(ctx, userID, client.ID)
		switch {
		case err == nil:
			client.Meta.IsVerified = existing.Meta.IsVerified
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, err
		}
		stored, err := s.SaveClient(ctx, userID, client)
		if err != nil {
			return nil, err
		}
		synced = append(synced, stored)
	}
	s.logger.InfoContext(ctx, "clients synced", "user_id", userID.String(), "count", len(synced))
	return synced, nil
}

// SaveCurrentClient persists client as this instance's client and installs it
// as the current client.
func (s *Service) SaveCurrentClient(ctx context.Context, client *models.Client) error {
	if client == nil || client.ID.IsNil() {
		return models.NewClientError(models.KindMissingClientID)
	}
	stored := client.Clone()
	stored.Meta.PrimaryKey = models.PrimaryKeyCurrentClient
	if err := s.saveLocal(ctx, models.PrimaryKeyCurrentClient, stored); err != nil {
		return models.WrapClientError(models.KindDatabaseFailure, err)
	}
	s.mu.Lock()
	s.current = stored
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "current client persisted", "client_id", stored.ID.String())
	return nil
}

// LoadClient reads a locally persisted client. Absent records yield a
// CodeNotFound error that still matches sentinel.ErrNotFound.
func (s *Service) LoadClient(ctx context.Context, userID id.UserID, clientID id.ClientID) (*models.Client, error) {
	key, err := ConstructPrimaryKey(userID, clientID)
	if err != nil {
		return nil, err
	}
	client, err := s.loadLocal(ctx, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(fmt.Errorf("client %s: %w", key, err), dErrors.CodeNotFound, "client not found")
	}
	if err != nil {
		return nil, models.WrapClientError(models.KindDatabaseFailure, err)
	}
	return client, nil
}

// VerifyClient records a local trust decision for a persisted client. This
// instance's own client lives under the current client key and is updated
// there.
func (s *Service) VerifyClient(ctx context.Context, userID id.UserID, clientID id.ClientID, verified bool) (*models.Client, error) {
	key, err := ConstructPrimaryKey(userID, clientID)
	if err != nil {
		return nil, err
	}
	if isCurrent, _ := s.IsCurrentClient(userID, clientID); isCurrent {
		current := s.CurrentClient()
		current.Meta.IsVerified = verified
		if err := s.SaveCurrentClient(ctx, current); err != nil {
			return nil, err
		}
		return s.CurrentClient(), nil
	}

	client, err := s.LoadClient(ctx, userID, clientID)
	if err != nil {
		return nil, err
	}
	client.Meta.IsVerified = verified
	client.Meta.PrimaryKey = key
	if err := s.saveLocal(ctx, key, client); err != nil {
		return nil, models.WrapClientError(models.KindDatabaseFailure, err)
	}
	return client, nil
}

// DeleteClient removes a locally persisted client of another device. The
// current client is only ever removed by validation.
func (s *Service) DeleteClient(ctx context.Context, userID id.UserID, clientID id.ClientID) (bool, error) {
	key, err := ConstructPrimaryKey(userID, clientID)
	if err != nil {
		return false, err
	}
	if isCurrent, _ := s.IsCurrentClient(userID, clientID); isCurrent {
		return false, models.NewClientError(models.KindCurrentClientDeletion)
	}
	deleted, err := s.deleteLocal(ctx, key)
	if err != nil {
		return false, models.WrapClientError(models.KindDatabaseFailure, err)
	}
	if deleted {
		s.logger.InfoContext(ctx, "local client deleted", "user_id", userID.String(), "client_id", clientID.String())
	}
	return deleted, nil
}
