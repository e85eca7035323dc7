// Package users declares the repository contract for classroom users.
package users

import (
	"context"

	"github.com/dmitrijs2005/classroom/internal/server/models"
)

type Repository interface {
	// Create inserts user, or returns the existing row for the same
	// provider and uid. The returned user carries the stored ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByProviderUID(ctx context.Context, provider, uid string) (*models.User, error)
}
