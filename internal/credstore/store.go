// Package credstore persists per-user session credentials: a raw session
// token and a JSON-serialized profile snapshot. These are the only two
// durable values the bot keeps; everything else is refetched from the
// backend.
package credstore

import (
	"context"
	"errors"

	"careline/internal/models"
)

// ErrNoSession is returned when no token is stored for a user. Absence
// means logged-out and is not a failure.
var ErrNoSession = errors.New("credstore: no session")

// Store is the per-user credential storage contract.
type Store interface {
	SaveToken(ctx context.Context, userID int64, token string) error
	Token(ctx context.Context, userID int64) (string, error)

	SaveUser(ctx context.Context, userID int64, user *models.User) error
	User(ctx context.Context, userID int64) (*models.User, error)

	// Remove clears both the token and the profile snapshot.
	Remove(ctx context.Context, userID int64) error
}
