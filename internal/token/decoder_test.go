package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func TestDecode_EmptyToken(t *testing.T) {
	_, err := Decode("", time.Now())
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("not-a-jwt", time.Now())
	assert.Error(t, err)
}

func TestDecode_Expired(t *testing.T) {
	now := time.Now()
	raw := signToken(t, jwt.MapClaims{
		"id":  "u1",
		"exp": now.Add(-time.Hour).Unix(),
	})

	profile, err := Decode(raw, now)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Nil(t, profile)
}

func TestDecode_EmbeddedUserClaim(t *testing.T) {
	now := time.Now()
	raw := signToken(t, jwt.MapClaims{
		"exp": now.Add(time.Hour).Unix(),
		"user": map[string]interface{}{
			"id":         "u42",
			"userName":   "Binh",
			"email":      "binh@example.com",
			"role":       "patient",
			"isVerified": true,
			"createdAt":  "2024-03-01T10:00:00Z",
		},
	})

	profile, err := Decode(raw, now)
	require.NoError(t, err)
	assert.Equal(t, "u42", profile.ID)
	assert.Equal(t, "Binh", profile.UserName)
	assert.Equal(t, "patient", profile.Role)
	assert.True(t, profile.IsVerified)
	assert.Equal(t, 2024, profile.CreatedAt.Year())
}

func TestDecode_FlatClaimsSynthesis(t *testing.T) {
	now := time.Now()
	raw := signToken(t, jwt.MapClaims{
		"exp":   now.Add(time.Hour).Unix(),
		"_id":   "u7",
		"email": "a@b.c",
	})

	profile, err := Decode(raw, now)
	require.NoError(t, err)
	assert.Equal(t, "u7", profile.ID)
	assert.Equal(t, "a@b.c", profile.Email)
	// Missing claims fall back to safe defaults instead of failing.
	assert.Equal(t, "user", profile.Role)
	assert.False(t, profile.IsVerified)
}

func TestDecode_NoExpClaim(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"id": "u9"})

	profile, err := Decode(raw, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u9", profile.ID)
}

func TestDecode_SubjectFallback(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{"sub": "u11"})

	profile, err := Decode(raw, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "u11", profile.ID)
}
