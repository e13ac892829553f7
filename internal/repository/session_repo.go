package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/models"
)

type SessionSQLite struct {
	db *sql.DB
}

func NewSessionSQLite(db *sql.DB) *SessionSQLite { return &SessionSQLite{db: db} }

var _ SessionStore = (*SessionSQLite)(nil)

const (
	insertSessionSQL         = `INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	selectSessionSQL         = `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`
	deleteSessionSQL         = `DELETE FROM sessions WHERE id = ?`
	deleteExpiredSessionsSQL = `DELETE FROM sessions WHERE expires_at <= ?`
)

func (r *SessionSQLite) Save(ctx context.Context, s models.Session) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, insertSessionSQL,
		s.ID, s.UserID, formatTime(s.CreatedAt), formatTime(s.ExpiresAt))
	if err != nil {
		return fmt.Errorf("insert session for user %d: %w", s.UserID, err)
	}
	return nil
}

// Get returns (nil, nil) if the session does not exist.
func (r *SessionSQLite) Get(ctx context.Context, id string) (*models.Session, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, selectSessionSQL, id)
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("select session: %w", err)
		}
		return nil, nil
	}
	var s models.Session
	if err := rows.Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}

// Delete is idempotent.
func (r *SessionSQLite) Delete(ctx context.Context, id string) error {
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, deleteSessionSQL, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionSQLite) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := getExecutor(ctx, r.db).ExecContext(ctx, deleteExpiredSessionsSQL, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected for expired sessions: %w", err)
	}
	return n, nil
}
