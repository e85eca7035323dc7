// Package accesstokens declares the repository contract for API access
// tokens and provides PostgreSQL and in-memory implementations.
package accesstokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/classroom/internal/server/models"
)

// Repository stores access tokens. Implementations must enforce secret
// uniqueness atomically and report a duplicate as common.ErrorAlreadyExists.
//
// The "now" arguments are supplied by the caller so that one logical
// operation compares every row against the same instant.
type Repository interface {
	// Create persists token as-is. A secret already in use yields
	// common.ErrorAlreadyExists; nothing is written in that case.
	Create(ctx context.Context, token *models.AccessToken) error

	// FindActiveBySecret returns the token with exactly this secret if it
	// expires after now, otherwise common.ErrorNotFound.
	FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*models.AccessToken, error)

	// GetByID returns the token regardless of expiry, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.AccessToken, error)

	// ListActive returns every token expiring after now, oldest first.
	// Secrets are not included.
	ListActive(ctx context.Context, now time.Time) ([]models.AccessToken, error)

	// ListActiveByUser is ListActive restricted to one owner.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.AccessToken, error)

	// Delete removes the token id owned by userID. Returns
	// common.ErrorNotFound when no such token belongs to that user.
	Delete(ctx context.Context, id, userID string) error

	// DeleteExpired removes tokens whose expiry is at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
