package credstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careline/internal/models"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveToken(ctx context.Context, userID int64, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockStore) Token(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockStore) SaveUser(ctx context.Context, userID int64, user *models.User) error {
	return m.Called(ctx, userID, user).Error(0)
}

func (m *mockStore) User(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockStore) Remove(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func TestFailoverStore(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Token", ctx, int64(1)).Return("tok", nil).Once()

		got, err := store.Token(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, "tok", got)
		primary.AssertExpectations(t)
	})

	t.Run("NoSessionIsNotFailover", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Token", ctx, int64(1)).Return("", ErrNoSession).Once()

		_, err := store.Token(ctx, 1)
		assert.ErrorIs(t, err, ErrNoSession)
		assert.False(t, store.isDown.Load())
		fallback.AssertNotCalled(t, "Token", mock.Anything, mock.Anything)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Token", ctx, int64(2)).Return("", errors.New("redis down")).Once()
		fallback.On("Token", ctx, int64(2)).Return("tok2", nil).Once()

		got, err := store.Token(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, "tok2", got)
		assert.True(t, store.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("DownSkipsPrimaryUntilRecoveryWindow", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)
		store.isDown.Store(true)
		store.lastCheck = time.Now()

		fallback.On("Token", ctx, int64(3)).Return("tok3", nil).Once()

		got, err := store.Token(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, "tok3", got)
		primary.AssertNotCalled(t, "Token", mock.Anything, mock.Anything)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)
		store.isDown.Store(true)
		store.lastCheck = time.Now().Add(-2 * recoveryInterval)

		primary.On("Token", ctx, int64(4)).Return("tok4", nil).Once()

		got, err := store.Token(ctx, 4)
		assert.NoError(t, err)
		assert.Equal(t, "tok4", got)
		assert.False(t, store.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("SaveTokenWritesBothStores", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("SaveToken", ctx, int64(5), "tok5").Return(nil).Once()
		fallback.On("SaveToken", ctx, int64(5), "tok5").Return(nil).Once()

		assert.NoError(t, store.SaveToken(ctx, 5, "tok5"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RemoveReachesBothStores", func(t *testing.T) {
		primary := new(mockStore)
		fallback := new(mockStore)
		store := NewFailoverStore(primary, fallback, &logger)

		primary.On("Remove", ctx, int64(6)).Return(nil).Once()
		fallback.On("Remove", ctx, int64(6)).Return(nil).Once()

		assert.NoError(t, store.Remove(ctx, 6))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
