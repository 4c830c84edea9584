package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"registrar/internal/client/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// Schema creates the table used by Postgres. Applied by migrations in
// production and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS local_clients (
	primary_key TEXT PRIMARY KEY,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// Postgres persists client records for instances that share a database,
// such as server-side bots holding their own E2EE client.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres builds a Postgres-backed store on an existing pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Migrate applies Schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, key string) (*models.Client, error) {
	var payload []byte
	err := p.db.QueryRow(ctx, `SELECT payload FROM local_clients WHERE primary_key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", key, err)
	}
	return decode(payload)
}

func (p *Postgres) Save(ctx context.Context, key string, client *models.Client) error {
	data, err := encode(client)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
		INSERT INTO local_clients (primary_key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (primary_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`, key, data, requestcontext.Now(ctx).UTC())
	if err != nil {
		return fmt.Errorf("save client %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) (bool, error) {
	cmd, err := p.db.Exec(ctx, `DELETE FROM local_clients WHERE primary_key = $1`, key)
	if err != nil {
		return false, fmt.Errorf("delete client %s: %w", key, err)
	}
	return cmd.RowsAffected() > 0, nil
}
