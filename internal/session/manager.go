// Package session owns "who is logged in" for every chat. The manager is
// the sole writer of both the credential store and the in-memory profile
// map; everything else observes sessions through Current or the event bus.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"careline/internal/clinicapi"
	"careline/internal/credstore"
	"careline/internal/events"
	"careline/internal/metrics"
	"careline/internal/models"
	"careline/internal/token"
)

// ErrNotCurrentUser is returned when a mutating call targets a backend id
// other than the caller's own profile.
var ErrNotCurrentUser = errors.New("session: not the current user")

// API is the slice of the clinic client the manager needs.
type API interface {
	Register(ctx context.Context, userID int64, req clinicapi.RegisterRequest) error
	Login(ctx context.Context, userID int64, email, password string) (string, error)
	Logout(ctx context.Context, userID int64) error
	VerifyOTP(ctx context.Context, userID int64, email, otp string) (string, error)
	ResendOTP(ctx context.Context, userID int64, email string) error
	ForgotPassword(ctx context.Context, userID int64, email string) error
	VerifyResetOTP(ctx context.Context, userID int64, email, otp string) error
	ResetPassword(ctx context.Context, userID int64, email, otp, newPassword string) (string, error)
	UpdateUser(ctx context.Context, userID int64, id string, patch clinicapi.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, userID int64, id string) error
}

// Manager is the auth session manager.
type Manager struct {
	api    API
	store  credstore.Store
	bus    *events.Bus
	logger *zerolog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	profiles map[int64]*models.User
}

func NewManager(api API, store credstore.Store, bus *events.Bus, logger *zerolog.Logger) *Manager {
	return &Manager{
		api:      api,
		store:    store,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
		profiles: make(map[int64]*models.User),
	}
}

// ActiveUsers lists the Telegram ids with a live in-memory session.
func (m *Manager) ActiveUsers() []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	return ids
}

// Current returns the in-memory profile for a user, nil when logged out.
func (m *Manager) Current(userID int64) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID]
}

// Hydrate re-derives the session from the stored token. Called on first
// contact with a chat after startup. A missing token means logged-out; an
// expired or undecodable token is cleared and also means logged-out.
func (m *Manager) Hydrate(ctx context.Context, userID int64) (*models.User, error) {
	if profile := m.Current(userID); profile != nil {
		return profile, nil
	}

	raw, err := m.store.Token(ctx, userID)
	if errors.Is(err, credstore.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	profile, err := token.Decode(raw, m.now())
	if err != nil {
		m.logger.Info().Err(err).Int64("user_id", userID).Msg("stored token rejected, clearing session")
		if rmErr := m.store.Remove(ctx, userID); rmErr != nil {
			m.logger.Warn().Err(rmErr).Int64("user_id", userID).Msg("failed to clear rejected session")
		}
		return nil, nil
	}

	m.setProfile(userID, profile)
	return profile, nil
}

// Login exchanges credentials for a session.
func (m *Manager) Login(ctx context.Context, userID int64, email, password string) (*models.User, error) {
	raw, err := m.api.Login(ctx, userID, email, password)
	if err != nil {
		metrics.IncLogin("failure")
		return nil, err
	}
	profile, err := m.adoptToken(ctx, userID, raw)
	if err != nil {
		metrics.IncLogin("failure")
		return nil, err
	}
	metrics.IncLogin("success")
	return profile, nil
}

// adoptToken decodes and persists a freshly issued token, then updates the
// in-memory state. Storage is written before memory so a crash mid-flow
// cannot leave memory ahead of storage.
func (m *Manager) adoptToken(ctx context.Context, userID int64, raw string) (*models.User, error) {
	profile, err := token.Decode(raw, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveToken(ctx, userID, raw); err != nil {
		return nil, err
	}
	if err := m.store.SaveUser(ctx, userID, profile); err != nil {
		return nil, err
	}

	m.setProfile(userID, profile)
	m.bus.Publish(events.Event{Type: events.SessionLogin, UserID: userID, User: profile})
	return profile, nil
}

// Logout ends the session. The backend call is best-effort: a network
// failure must never trap the user in a logged-in state.
func (m *Manager) Logout(ctx context.Context, userID int64) error {
	if err := m.api.Logout(ctx, userID); err != nil {
		m.logger.Warn().Err(err).Int64("user_id", userID).Msg("backend logout failed, clearing local session anyway")
	}
	return m.clear(ctx, userID, events.SessionLogout)
}

// Invalidate demotes the session without a backend call. Wired as the API
// client's 401 hook.
func (m *Manager) Invalidate(ctx context.Context, userID int64) {
	metrics.IncSessionExpired()
	if err := m.clear(ctx, userID, events.SessionExpired); err != nil {
		m.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to clear invalidated session")
	}
}

func (m *Manager) clear(ctx context.Context, userID int64, eventType string) error {
	if err := m.store.Remove(ctx, userID); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.profiles, userID)
	m.mu.Unlock()
	m.bus.Publish(events.Event{Type: eventType, UserID: userID})
	return nil
}

// Register creates an account; the session stays logged out until the OTP
// is verified.
func (m *Manager) Register(ctx context.Context, userID int64, req clinicapi.RegisterRequest) error {
	return m.api.Register(ctx, userID, req)
}

// VerifyOTP confirms the verification code. When the backend issues a
// token it is adopted exactly like a login.
func (m *Manager) VerifyOTP(ctx context.Context, userID int64, email, otp string) (*models.User, error) {
	raw, err := m.api.VerifyOTP(ctx, userID, email, otp)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return m.adoptToken(ctx, userID, raw)
}

// ResendOTP requests a new verification code.
func (m *Manager) ResendOTP(ctx context.Context, userID int64, email string) error {
	metrics.IncOTPSent()
	return m.api.ResendOTP(ctx, userID, email)
}

// ForgotPassword starts the reset flow.
func (m *Manager) ForgotPassword(ctx context.Context, userID int64, email string) error {
	metrics.IncOTPSent()
	return m.api.ForgotPassword(ctx, userID, email)
}

// VerifyResetOTP checks the reset code.
func (m *Manager) VerifyResetOTP(ctx context.Context, userID int64, email, otp string) error {
	return m.api.VerifyResetOTP(ctx, userID, email, otp)
}

// ResetPassword sets a new password; a returned token logs the user in.
func (m *Manager) ResetPassword(ctx context.Context, userID int64, email, otp, newPassword string) (*models.User, error) {
	raw, err := m.api.ResetPassword(ctx, userID, email, otp, newPassword)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return m.adoptToken(ctx, userID, raw)
}

// UpdateUser applies a profile patch for the caller's own backend id.
func (m *Manager) UpdateUser(ctx context.Context, userID int64, id string, patch clinicapi.UserPatch) (*models.User, error) {
	current := m.Current(userID)
	if current == nil || current.ID != id {
		return nil, ErrNotCurrentUser
	}

	updated, err := m.api.UpdateUser(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveUser(ctx, userID, updated); err != nil {
		return nil, err
	}

	m.setProfile(userID, updated)
	m.bus.Publish(events.Event{Type: events.SessionUpdated, UserID: userID, User: updated})
	return updated, nil
}

// DeleteUser removes the caller's own account and ends the session.
func (m *Manager) DeleteUser(ctx context.Context, userID int64, id string) error {
	current := m.Current(userID)
	if current == nil || current.ID != id {
		return ErrNotCurrentUser
	}
	if err := m.api.DeleteUser(ctx, userID, id); err != nil {
		return err
	}
	return m.clear(ctx, userID, events.SessionLogout)
}

func (m *Manager) setProfile(userID int64, profile *models.User) {
	m.mu.Lock()
	m.profiles[userID] = profile
	m.mu.Unlock()
}
