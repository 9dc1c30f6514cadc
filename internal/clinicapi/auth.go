package clinicapi

import (
	"context"

	"careline/internal/models"
)

// Operation names, used for metrics labels and fallback error messages.
const (
	opLogin          = "login"
	opRegister       = "register"
	opLogout         = "logout"
	opVerifyOTP      = "verify_otp"
	opResendOTP      = "resend_otp"
	opForgotPassword = "forgot_password"
	opVerifyResetOTP = "verify_reset_otp"
	opResetPassword  = "reset_password"
)

// RegisterRequest is the payload for POST /users.
type RegisterRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// tokenResponse is shared by every auth endpoint that issues a token.
type tokenResponse struct {
	Token   string       `json:"token"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

// Register creates an account. The backend sends a verification OTP to the
// email; no token is issued until the OTP is verified.
func (c *Client) Register(ctx context.Context, userID int64, req RegisterRequest) error {
	return c.doPost(ctx, userID, "/users", opRegister, req, nil)
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, userID int64, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	if err := c.doPost(ctx, userID, "/users/login", opLogin, body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// Logout notifies the backend that the session ends. Callers treat a
// failure here as best-effort.
func (c *Client) Logout(ctx context.Context, userID int64) error {
	return c.doPost(ctx, userID, "/users/logout", opLogout, struct{}{}, nil)
}

// VerifyOTP confirms the emailed verification code. A fresh session token
// is returned on success.
func (c *Client) VerifyOTP(ctx context.Context, userID int64, email, otp string) (string, error) {
	body := map[string]string{"email": email, "otp": otp}
	var resp tokenResponse
	if err := c.doPost(ctx, userID, "/users/verify-otp", opVerifyOTP, body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ResendOTP requests a new verification code.
func (c *Client) ResendOTP(ctx context.Context, userID int64, email string) error {
	body := map[string]string{"email": email}
	return c.doPost(ctx, userID, "/users/resend-otp", opResendOTP, body, nil)
}

// ForgotPassword starts the reset flow: the backend emails a reset OTP.
func (c *Client) ForgotPassword(ctx context.Context, userID int64, email string) error {
	body := map[string]string{"email": email}
	return c.doPost(ctx, userID, "/users/forgot-password", opForgotPassword, body, nil)
}

// VerifyResetOTP checks the reset code before a new password is accepted.
func (c *Client) VerifyResetOTP(ctx context.Context, userID int64, email, otp string) error {
	body := map[string]string{"email": email, "otp": otp}
	return c.doPost(ctx, userID, "/users/verify-reset-otp", opVerifyResetOTP, body, nil)
}

// ResetPassword sets a new password. On success the backend issues a fresh
// session token.
func (c *Client) ResetPassword(ctx context.Context, userID int64, email, otp, newPassword string) (string, error) {
	body := map[string]string{"email": email, "otp": otp, "newPassword": newPassword}
	var resp tokenResponse
	if err := c.doPost(ctx, userID, "/users/reset-password", opResetPassword, body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}
