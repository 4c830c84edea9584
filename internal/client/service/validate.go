package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"registrar/internal/client/metrics"
	"registrar/internal/client/models"
	"registrar/pkg/platform/sentinel"
)

const validationKey = "current-client"

// GetValidLocalClient establishes whether the persisted current client is
// still registered with the backend.
//
// Outcomes are exclusive:
//   - the validated client, also installed as the current client
//   - KindNoValidClient when nothing is persisted or the backend reports the
//     client as not found; in the latter case the persisted record is deleted
//     after the backend answered
//   - KindDatabaseFailure for anything else; local state is left untouched
//
// Concurrent calls share a single in-flight validation and its outcome. The
// shared run is detached from any one caller's cancellation; a caller whose
// ctx ends first gets KindDatabaseFailure while the run continues for the
// others.
func (s *Service) GetValidLocalClient(ctx context.Context) (*models.Client, error) {
	shared := context.WithoutCancel(ctx)
	ch := s.validation.DoChan(validationKey, func() (any, error) {
		return s.validateLocalClient(shared)
	})
	select {
	case <-ctx.Done():
		return nil, models.WrapClientError(models.KindDatabaseFailure, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Client).Clone(), nil
	}
}

func (s *Service) validateLocalClient(ctx context.Context) (*models.Client, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "client.GetValidLocalClient")
	defer span.End()

	local, err := s.loadLocal(ctx, models.PrimaryKeyCurrentClient)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.InfoContext(ctx, "no local client persisted")
		s.observeValidation(metrics.OutcomeNoLocalClient, start)
		span.SetAttributes(attribute.String("outcome", metrics.OutcomeNoLocalClient))
		return nil, models.NewClientError(models.KindNoValidClient)
	}
	if err == nil && (local == nil || local.ID.IsNil()) {
		err = fmt.Errorf("%w: persisted current client has no id", sentinel.ErrMalformed)
	}
	if err != nil {
		return nil, s.databaseFailure(ctx, span, start, "load local client", err)
	}
	span.SetAttributes(attribute.String("client_id", local.ID.String()))

	payload, err := s.authority.GetClient(ctx, local.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.removeLocalClient(ctx, span, start, local, err)
		}
		return nil, s.databaseFailure(ctx, span, start, "confirm client with backend", err)
	}

	remote := models.MapClient(payload, true)
	if remote.ID != local.ID {
		err := fmt.Errorf("%w: backend returned client %q for %q", sentinel.ErrMalformed, remote.ID, local.ID)
		return nil, s.databaseFailure(ctx, span, start, "confirm client with backend", err)
	}

	validated := local.MergeRemote(remote)
	s.mu.Lock()
	s.current = validated
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "local client validated",
		"client_id", validated.ID.String(),
		"client_type", string(validated.Type),
	)
	s.observeValidation(metrics.OutcomeValid, start)
	span.SetAttributes(attribute.String("outcome", metrics.OutcomeValid))
	return validated, nil
}

// removeLocalClient runs only after the backend conclusively reported the
// client as not found.
func (s *Service) removeLocalClient(ctx context.Context, span trace.Span, start time.Time, local *models.Client, notFound error) error {
	s.logger.WarnContext(ctx, "local client no longer exists on backend, removing local state",
		"client_id", local.ID.String(),
	)
	s.ClearCurrentClient()
	s.observeValidation(metrics.OutcomeRemovedRemotely, start)
	span.SetAttributes(attribute.String("outcome", metrics.OutcomeRemovedRemotely))

	if _, err := s.deleteLocal(ctx, models.PrimaryKeyCurrentClient); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete local client",
			"client_id", local.ID.String(),
			"error", err,
		)
		return models.WrapClientError(models.KindNoValidClient, errors.Join(notFound, err))
	}
	if s.metrics != nil {
		s.metrics.IncrementLocalDeletions()
	}
	return models.WrapClientError(models.KindNoValidClient, notFound)
}

func (s *Service) databaseFailure(ctx context.Context, span trace.Span, start time.Time, step string, err error) error {
	s.logger.ErrorContext(ctx, "local client validation failed",
		"step", step,
		"error", err,
	)
	s.observeValidation(metrics.OutcomeDatabaseFailure, start)
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	span.SetAttributes(attribute.String("outcome", metrics.OutcomeDatabaseFailure))
	return models.WrapClientError(models.KindDatabaseFailure, fmt.Errorf("%s: %w", step, err))
}
