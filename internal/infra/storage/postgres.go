package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresConfig holds PostgreSQL connection configuration.
type PostgresConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// PostgresStore persists the cursor in a one-row-per-account table.
type PostgresStore struct {
	db      *sqlx.DB
	account string
}

// NewPostgresStore opens the database, applies migrations and returns a
// Postgres-backed cursor store.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, account string) (*PostgresStore, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(10)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	} else {
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}

	return &PostgresStore{db: db, account: account}, nil
}

// Load reads the cursor row for the distributor account.
func (s *PostgresStore) Load(ctx context.Context) (string, error) {
	var cursor string
	err := s.db.GetContext(ctx, &cursor,
		`SELECT cursor FROM forward_cursor WHERE account = $1`, s.account)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cursor: %w", err)
	}
	return cursor, nil
}

// Save upserts the cursor row for the distributor account.
func (s *PostgresStore) Save(ctx context.Context, cursor string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO forward_cursor (account, cursor, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (account)
		 DO UPDATE SET cursor = EXCLUDED.cursor, updated_at = now()`,
		s.account, cursor)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
