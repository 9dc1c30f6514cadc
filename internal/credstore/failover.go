package credstore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"careline/internal/models"
)

const recoveryInterval = time.Minute

// FailoverStore reads and writes through a primary store and falls back to
// a secondary when the primary fails. After a primary failure it stays on
// the fallback and re-probes the primary at most once per recoveryInterval.
// Writes go to both stores on the happy path so the fallback stays warm.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// usePrimary reports whether the primary should be tried for this call.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastCheck) >= recoveryInterval {
		s.lastCheck = time.Now()
		return true
	}
	return false
}

func (s *FailoverStore) markDown(err error) {
	if s.isDown.CompareAndSwap(false, true) {
		s.logger.Warn().Err(err).Msg("primary credential store down, using fallback")
	}
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
}

func (s *FailoverStore) markUp() {
	if s.isDown.CompareAndSwap(true, false) {
		s.logger.Info().Msg("primary credential store recovered")
	}
}

func (s *FailoverStore) SaveToken(ctx context.Context, userID int64, token string) error {
	if s.usePrimary() {
		if err := s.primary.SaveToken(ctx, userID, token); err == nil {
			s.markUp()
			// Keep the fallback warm; a failure here is non-fatal.
			if ferr := s.fallback.SaveToken(ctx, userID, token); ferr != nil {
				s.logger.Warn().Err(ferr).Int64("user_id", userID).Msg("fallback token write failed")
			}
			return nil
		} else {
			s.markDown(err)
		}
	}
	return s.fallback.SaveToken(ctx, userID, token)
}

func (s *FailoverStore) Token(ctx context.Context, userID int64) (string, error) {
	if s.usePrimary() {
		token, err := s.primary.Token(ctx, userID)
		if err == nil || err == ErrNoSession {
			s.markUp()
			return token, err
		}
		s.markDown(err)
	}
	return s.fallback.Token(ctx, userID)
}

func (s *FailoverStore) SaveUser(ctx context.Context, userID int64, user *models.User) error {
	if s.usePrimary() {
		if err := s.primary.SaveUser(ctx, userID, user); err == nil {
			s.markUp()
			if ferr := s.fallback.SaveUser(ctx, userID, user); ferr != nil {
				s.logger.Warn().Err(ferr).Int64("user_id", userID).Msg("fallback user write failed")
			}
			return nil
		} else {
			s.markDown(err)
		}
	}
	return s.fallback.SaveUser(ctx, userID, user)
}

func (s *FailoverStore) User(ctx context.Context, userID int64) (*models.User, error) {
	if s.usePrimary() {
		user, err := s.primary.User(ctx, userID)
		if err == nil || err == ErrNoSession {
			s.markUp()
			return user, err
		}
		s.markDown(err)
	}
	return s.fallback.User(ctx, userID)
}

func (s *FailoverStore) Remove(ctx context.Context, userID int64) error {
	// Removal must reach both stores or a stale session could resurrect
	// after failback.
	var primaryErr error
	if s.usePrimary() {
		if primaryErr = s.primary.Remove(ctx, userID); primaryErr != nil {
			s.markDown(primaryErr)
		} else {
			s.markUp()
		}
	}
	if err := s.fallback.Remove(ctx, userID); err != nil {
		return err
	}
	return primaryErr
}
