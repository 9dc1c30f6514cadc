package credstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"careline/internal/models"
)

// SQLiteStore is the on-disk fallback credential store, used when Redis is
// unreachable. One row per user holding both the token and the snapshot.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id    INTEGER PRIMARY KEY,
		token      TEXT NOT NULL DEFAULT '',
		profile    TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// PingContext is used by the readiness probe.
func (s *SQLiteStore) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) SaveToken(ctx context.Context, userID int64, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, token, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			token = excluded.token,
			updated_at = excluded.updated_at`,
		userID, token, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite save token: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Token(ctx context.Context, userID int64) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT token FROM sessions WHERE user_id = ?`, userID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("sqlite get token: %w", err)
	}
	if token == "" {
		return "", ErrNoSession
	}
	return token, nil
}

func (s *SQLiteStore) SaveUser(ctx context.Context, userID int64, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, profile, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile = excluded.profile,
			updated_at = excluded.updated_at`,
		userID, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("sqlite save user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) User(ctx context.Context, userID int64) (*models.User, error) {
	var profile string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM sessions WHERE user_id = ?`, userID).Scan(&profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get user: %w", err)
	}
	if profile == "" {
		return nil, ErrNoSession
	}
	var user models.User
	if err := json.Unmarshal([]byte(profile), &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) Remove(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("sqlite remove session: %w", err)
	}
	return nil
}
