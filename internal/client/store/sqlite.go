package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"registrar/internal/client/models"
	"registrar/pkg/platform/sentinel"
	"registrar/pkg/requestcontext"
)

// localClientRow mirrors the local_clients table; Postgres uses the same columns.
type localClientRow struct {
	PrimaryKey string    `gorm:"column:primary_key;primaryKey"`
	Payload    []byte    `gorm:"column:payload;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (localClientRow) TableName() string { return "local_clients" }

// SQLite persists client records in an embedded database file, the natural
// home of a single instance's local state.
type SQLite struct {
	db *gorm.DB
}

// NewSQLite opens (or creates) the database at path. Use ":memory:" or
// "file::memory:" for an ephemeral database.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps
	// in-memory databases visible to every query.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&localClientRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context, key string) (*models.Client, error) {
	var row localClientRow
	err := s.db.WithContext(ctx).Where("primary_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load client %s: %w", key, err)
	}
	return decode(row.Payload)
}

func (s *SQLite) Save(ctx context.Context, key string, client *models.Client) error {
	data, err := encode(client)
	if err != nil {
		return err
	}
	row := localClientRow{PrimaryKey: key, Payload: data, UpdatedAt: requestcontext.Now(ctx).UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "primary_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save client %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) (bool, error) {
	res := s.db.WithContext(ctx).Where("primary_key = ?", key).Delete(&localClientRow{})
	if res.Error != nil {
		return false, fmt.Errorf("delete client %s: %w", key, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
