// Package clinicapi wraps the clinic REST backend. Every outbound call in
// the bot goes through this client: it attaches the acting user's bearer
// token, enforces the request timeout, normalizes backend errors, and
// reports 401 responses so the session layer can demote the user.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"careline/internal/credstore"
	"careline/internal/metrics"
)

const requestTimeout = 10 * time.Second

// TokenSource yields the stored session token for a Telegram user.
// credstore.Store satisfies it.
type TokenSource interface {
	Token(ctx context.Context, userID int64) (string, error)
}

// UnauthorizedHook is invoked whenever the backend answers 401, regardless
// of which call triggered it.
type UnauthorizedHook func(ctx context.Context, userID int64)

// Client is the HTTP client for the clinic backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	onUnauthorized UnauthorizedHook
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// New constructs a client for the given base URL. tokens may be nil for a
// client that only performs anonymous calls.
func New(baseURL string, tokens TokenSource, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		tokens:     tokens,
		logger:     logger,
	}
}

// OnUnauthorized registers the 401 hook. The session manager uses it to
// clear stored credentials.
func (c *Client) OnUnauthorized(hook UnauthorizedHook) {
	c.onUnauthorized = hook
}

// UseRedisCache configures optional read-through caching for catalog GETs.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// APIError is a normalized backend error: the backend's message verbatim
// when present, a per-operation fallback otherwise. Code carries the
// machine-readable error code when the backend provides one.
type APIError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// errorBody is the backend's error response shape.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (c *Client) doGet(ctx context.Context, userID int64, endpoint, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(ctx, userID, req, op, out)
}

func (c *Client) doPost(ctx context.Context, userID int64, endpoint, op string, body, out any) error {
	return c.doJSON(ctx, userID, http.MethodPost, endpoint, op, body, out)
}

func (c *Client) doPut(ctx context.Context, userID int64, endpoint, op string, body, out any) error {
	return c.doJSON(ctx, userID, http.MethodPut, endpoint, op, body, out)
}

func (c *Client) doDelete(ctx context.Context, userID int64, endpoint, op string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return err
	}
	return c.do(ctx, userID, req, op, nil)
}

func (c *Client) doJSON(ctx context.Context, userID int64, method, endpoint, op string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(ctx, userID, req, op, out)
}

func (c *Client) do(ctx context.Context, userID int64, req *http.Request, op string, out any) error {
	c.attachAuth(ctx, userID, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(op, "network_error")
		return &APIError{Op: op, Message: fallbackMessage(op)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.IncAPIRequest(op, "unauthorized")
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, userID)
		}
		return c.normalizeError(op, resp)
	}

	if resp.StatusCode >= 300 {
		metrics.IncAPIRequest(op, fmt.Sprintf("http_%d", resp.StatusCode))
		return c.normalizeError(op, resp)
	}

	metrics.IncAPIRequest(op, "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) attachAuth(ctx context.Context, userID int64, req *http.Request) {
	if c.tokens == nil || userID == 0 {
		return
	}
	tok, err := c.tokens.Token(ctx, userID)
	if err != nil {
		if !errors.Is(err, credstore.ErrNoSession) {
			c.logger.Warn().Err(err).Int64("user_id", userID).Msg("token lookup failed")
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+tok)
}

func (c *Client) normalizeError(op string, resp *http.Response) error {
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Message: fallbackMessage(op)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			apiErr.Message = eb.Message
		}
		apiErr.Code = eb.Code
	}
	return apiErr
}

// fallbackMessage maps an operation to its generic failure message, used
// when the backend response carries no message of its own.
func fallbackMessage(op string) string {
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "request failed, please try again"
}

var fallbackMessages = map[string]string{
	opLogin:           "login failed",
	opRegister:        "registration failed",
	opLogout:          "logout failed",
	opVerifyOTP:       "OTP verification failed",
	opResendOTP:       "could not resend the code",
	opForgotPassword:  "could not start password reset",
	opVerifyResetOTP:  "reset code verification failed",
	opResetPassword:   "password reset failed",
	opGetUser:         "could not load profile",
	opUpdateUser:      "could not update profile",
	opDeleteUser:      "could not delete account",
	opCategories:      "could not load categories",
	opServices:        "could not load services",
	opDoctors:         "could not load doctors",
	opBookings:        "could not load bookings",
	opCreateBooking:   "could not create the booking",
	opUpdateBooking:   "could not update the booking",
	opDeleteBooking:   "could not cancel the booking",
	opNotifications:   "could not load notifications",
	opResults:         "could not load results",
	opCreatePayment:   "could not create the payment link",
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}
