package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/hobosky/hobosky-go/internal/model"
)

const pgOpTimeout = 5 * time.Second

// PostgresStore keeps the session and endpoint as rows in a small kv table,
// for bot deployments that already carry a database.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS client_state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure client_state table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) LoadSession() (*model.Session, error) {
	value, err := s.get(KeySession)
	if err != nil || value == "" {
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		log.Warn().Err(err).Msg("discarding corrupt session row")
		return nil, nil
	}
	return &session, nil
}

func (s *PostgresStore) SaveSession(session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.set(KeySession, string(data))
}

func (s *PostgresStore) ClearSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = $1`, KeySession)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadService() (string, error) {
	return s.get(KeyService)
}

func (s *PostgresStore) SaveService(service string) error {
	return s.set(KeyService, service)
}

func (s *PostgresStore) get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM client_state WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), pgOpTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO client_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
