// Package store holds the local persistence backends for client records.
//
// Every backend stores one JSON-encoded client per string key. Keys are either
// the PrimaryKeyCurrentClient sentinel or a "{userID}@{clientID}" composite.
// Load returns sentinel.ErrNotFound for absent keys.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"registrar/internal/client/models"
	"registrar/pkg/platform/sentinel"
)

// PrimaryKeyCurrentClient is the key of the persisted current client.
const PrimaryKeyCurrentClient = models.PrimaryKeyCurrentClient

// Driver names accepted by New.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is implemented by every backend.
type Store interface {
	Load(ctx context.Context, key string) (*models.Client, error)
	Save(ctx context.Context, key string, client *models.Client) error
	Delete(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a backend.
type Config struct {
	Driver     string
	SQLitePath string
	KeyPrefix  string
	Redis      *redis.Client
	Postgres   *pgxpool.Pool
}

// New builds the backend named by cfg.Driver. An empty driver means memory.
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewInMemory(), nil
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis store: client is required")
		}
		return NewRedis(cfg.Redis, WithKeyPrefix(cfg.KeyPrefix)), nil
	case DriverSQLite:
		st, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case DriverPostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres store: pool is required")
		}
		return NewPostgres(cfg.Postgres), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

var errNilClient = errors.New("client record is required")

func encode(client *models.Client) ([]byte, error) {
	if client == nil {
		return nil, errNilClient
	}
	return json.Marshal(client)
}

func decode(raw []byte) (*models.Client, error) {
	var client models.Client
	if err := json.Unmarshal(raw, &client); err != nil {
		return nil, fmt.Errorf("%w: %v", sentinel.ErrMalformed, err)
	}
	return &client, nil
}
