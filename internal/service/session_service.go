package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

type SessionService struct {
	store    repository.SessionStore
	tx       repository.Transactor
	activity recorder
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionService(store repository.SessionStore, tx repository.Transactor, activity recorder, ttl time.Duration) *SessionService {
	return &SessionService{
		store:    store,
		tx:       tx,
		activity: activity,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Begin opens a session for userID that expires after the configured TTL.
func (s *SessionService) Begin(ctx context.Context, userID int) (models.Session, error) {
	now := s.now()
	sess := models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// Resolve maps a session id to its user. Expired sessions are deleted.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, ErrSessionNotFound
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	if sess == nil {
		return 0, ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return 0, fmt.Errorf("drop expired session: %w", err)
		}
		return 0, ErrSessionExpired
	}
	return sess.UserID, nil
}

// End deletes the session. Unknown ids are not an error.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.tx.RunAtomic(ctx, func(ctx context.Context) error {
		sess, err := s.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess == nil {
			return nil
		}
		if err := s.store.Delete(ctx, sessionID); err != nil {
			return err
		}
		return s.activity.Record(ctx, models.ActivityEvent{
			Type:        models.EventLogout,
			UserID:      sess.UserID,
			Description: "session ended",
		})
	})
}
