package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks LocalStore,Authority

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/singleflight"

	"registrar/internal/client/metrics"
	"registrar/internal/client/models"
	"registrar/internal/platform/environment"
	id "registrar/pkg/domain"
)

var tracer = otel.Tracer("registrar/client")

// LocalStore persists client records on this instance.
// Load returns sentinel.ErrNotFound for absent keys.
type LocalStore interface {
	Load(ctx context.Context, key string) (*models.Client, error)
	Save(ctx context.Context, key string, client *models.Client) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Authority is the remote identity backend. A client it no longer knows is
// reported with an error matching sentinel.ErrNotFound.
type Authority interface {
	GetClient(ctx context.Context, clientID id.ClientID) (models.Payload, error)
	ListClients(ctx context.Context, userID id.UserID) ([]models.Payload, error)
}

// Service owns the current client of this running instance and the protocol
// that validates it against the backend.
type Service struct {
	local     LocalStore
	authority Authority
	env       environment.Environment
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu         sync.RWMutex
	current    *models.Client
	selfUserID id.UserID

	validation singleflight.Group
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEnvironment sets the host environment consulted by the permanence rule.
func WithEnvironment(env environment.Environment) Option {
	return func(s *Service) {
		s.env = env
	}
}

// WithSelfUserID sets the user this instance is logged in as.
func WithSelfUserID(userID id.UserID) Option {
	return func(s *Service) {
		s.selfUserID = userID
	}
}

// New constructs a Service.
func New(local LocalStore, authority Authority, opts ...Option) (*Service, error) {
	if local == nil {
		return nil, errors.New("local store is required")
	}
	if authority == nil {
		return nil, errors.New("authority is required")
	}
	s := &Service{
		local:     local,
		authority: authority,
		env:       environment.Static{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.env == nil {
		s.env = environment.Static{}
	}
	return s, nil
}

func (s *Service) observeStore(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStore(op, start)
	}
}

func (s *Service) observeValidation(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveValidation(outcome, start)
	}
}

func (s *Service) loadLocal(ctx context.Context, key string) (*models.Client, error) {
	defer s.observeStore("load", time.Now())
	return s.local.Load(ctx, key)
}

func (s *Service) saveLocal(ctx context.Context, key string, client *models.Client) error {
	defer s.observeStore("save", time.Now())
	return s.local.Save(ctx, key, client)
}

func (s *Service) deleteLocal(ctx context.Context, key string) (bool, error) {
	defer s.observeStore("delete", time.Now())
	return s.local.Delete(ctx, key)
}
