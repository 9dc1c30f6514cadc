package clinicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careline/internal/credstore"
	"careline/internal/models"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token(ctx context.Context, userID int64) (string, error) {
	if s.token == "" {
		return "", credstore.ErrNoSession
	}
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	return New(srv.URL, &staticTokens{token: token}, &logger)
}

func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.Category{})
	})

	client := newTestClient(t, handler, "tok-123")
	_, err := client.Categories(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]models.Category{})
	})

	client := newTestClient(t, handler, "")
	_, err := client.Categories(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_UnauthorizedInvokesHook(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "token expired", "code": "TOKEN_EXPIRED"})
	})

	client := newTestClient(t, handler, "stale")

	var hookCalls atomic.Int32
	var hookUserID int64
	client.OnUnauthorized(func(ctx context.Context, userID int64) {
		hookCalls.Add(1)
		hookUserID = userID
	})

	_, err := client.BookingsByUser(context.Background(), 42, "p1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "token expired", apiErr.Message)
	assert.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
	assert.Equal(t, int32(1), hookCalls.Load())
	assert.Equal(t, int64(42), hookUserID)
}

func TestClient_ErrorFallbackMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})

	client := newTestClient(t, handler, "tok")

	_, err := client.Login(context.Background(), 1, "a@b.c", "pw")
	require.Error(t, err)
	assert.Equal(t, "login failed", err.Error())
}

func TestClient_BackendMessageSurfacedVerbatim(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "email already registered"})
	})

	client := newTestClient(t, handler, "")

	err := client.Register(context.Background(), 1, RegisterRequest{Email: "a@b.c"})
	require.Error(t, err)
	assert.Equal(t, "email already registered", err.Error())
}

func TestClient_CatalogCache(t *testing.T) {
	var hits atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]models.Category{{ID: "c1", Name: "Testing"}})
	})

	client := newTestClient(t, handler, "tok")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	client.UseRedisCache(rdb, time.Minute)

	ctx := context.Background()
	first, err := client.Categories(ctx, 1)
	require.NoError(t, err)
	second, err := client.Categories(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second read must come from cache")
}

func TestClient_CreateBookingPayload(t *testing.T) {
	var got CreateBookingRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(models.Booking{ID: "b1", Status: models.StatusPending})
	})

	client := newTestClient(t, handler, "tok")

	req := CreateBookingRequest{
		UserID:      "u1",
		ServiceID:   "s1",
		DoctorName:  "Dr. Lan",
		BookingDate: "2024-05-20",
		StartTime:   "09:30",
		Status:      string(models.StatusPending),
	}
	booking, err := client.CreateBooking(context.Background(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "b1", booking.ID)
	assert.Equal(t, req, got)
}
