package service

import (
	"context"
	"time"

	"storefront/internal/logger"
	"storefront/internal/repository"
)

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	store repository.SessionStore
	log   *logger.Logger
}

func NewSessionSweeper(store repository.SessionStore, log *logger.Logger) *SessionSweeper {
	return &SessionSweeper{store: store, log: log}
}

// Run ticks at the given interval until ctx is canceled.
func (s *SessionSweeper) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.Sweep(ctx, now)
			if err != nil {
				if s.log != nil {
					s.log.Errorw("session_sweep_failed", "err", err)
				}
				continue
			}
			if n > 0 && s.log != nil {
				s.log.Infow("session_sweep", "deleted", n)
			}
		}
	}
}

// Sweep deletes sessions whose expiry is at or before now.
func (s *SessionSweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteExpired(ctx, now.UTC())
}
