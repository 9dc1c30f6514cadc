// Package token decodes session tokens issued by the clinic backend.
//
// Claims are read WITHOUT signature verification: the backend re-validates
// the token on every API call, so the decoded profile is display/UX state
// only, never an authorization decision. Do not add client-side verification
// here unless the backend contract changes.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"careline/internal/models"
)

var (
	// ErrEmptyToken is returned for empty input.
	ErrEmptyToken = errors.New("token: empty token")
	// ErrExpired is returned when the exp claim is in the past.
	ErrExpired = errors.New("token: token expired")
)

// sessionClaims mirrors the backend's token payload. Some backend versions
// embed the whole user object, others emit flat claims only.
type sessionClaims struct {
	jwt.RegisteredClaims

	User *userClaim `json:"user,omitempty"`

	ID         string `json:"id,omitempty"`
	LegacyID   string `json:"_id,omitempty"`
	UserName   string `json:"userName,omitempty"`
	Email      string `json:"email,omitempty"`
	Role       string `json:"role,omitempty"`
	IsVerified bool   `json:"isVerified,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

type userClaim struct {
	ID         string `json:"id,omitempty"`
	LegacyID   string `json:"_id,omitempty"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"isVerified"`
	Phone      string `json:"phone,omitempty"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// Decode parses a raw token string into a user profile. now is the expiry
// reference clock, normally time.Now().
func Decode(raw string, now time.Time) (*models.User, error) {
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims := &sessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("token: parse: %w", err)
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(now) {
		return nil, ErrExpired
	}

	if claims.User != nil {
		return profileFromUserClaim(claims.User), nil
	}
	return profileFromFlatClaims(claims), nil
}

func profileFromUserClaim(u *userClaim) *models.User {
	return &models.User{
		ID:         firstNonEmpty(u.ID, u.LegacyID),
		UserName:   u.UserName,
		Email:      u.Email,
		Role:       defaultString(u.Role, "user"),
		IsVerified: u.IsVerified,
		Phone:      u.Phone,
		CreatedAt:  parseTimeClaim(u.CreatedAt),
		UpdatedAt:  parseTimeClaim(u.UpdatedAt),
	}
}

func profileFromFlatClaims(c *sessionClaims) *models.User {
	id := firstNonEmpty(c.ID, c.LegacyID, c.Subject)
	return &models.User{
		ID:         id,
		UserName:   c.UserName,
		Email:      c.Email,
		Role:       defaultString(c.Role, "user"),
		IsVerified: c.IsVerified,
		CreatedAt:  parseTimeClaim(c.CreatedAt),
		UpdatedAt:  parseTimeClaim(c.UpdatedAt),
	}
}

func parseTimeClaim(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
