package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/config"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classroom/internal/timex"
	"github.com/google/uuid"
)

// UserService records users signed in through an OAuth provider and mints
// the session tokens the frontend uses to manage its API access tokens.
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	clock                        timex.Clock
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock timex.Clock) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		clock:                        clock,
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
	}
}

// Register stores a user after provider sign-in. Signing in again with the
// same provider and uid returns the existing user.
func (s *UserService) Register(ctx context.Context, user *models.User) (*models.User, error) {
	switch {
	case user.Provider == "":
		return nil, common.NewValidationError("provider", "is required")
	case user.UID == "":
		return nil, common.NewValidationError("uid", "is required")
	case user.UserName == "":
		return nil, common.NewValidationError("username", "is required")
	}
	if user.Role == "" {
		user.Role = models.RoleMember
	}
	if user.Role != models.RoleMember && user.Role != models.RoleAdmin {
		return nil, common.NewValidationError("role", "is not included in the list")
	}

	var u *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		existing, err := repo.GetByProviderUID(ctx, user.Provider, user.UID)
		switch {
		case err == nil:
			user.ID = existing.ID
		case errors.Is(err, common.ErrorNotFound):
			user.ID = uuid.NewString()
		default:
			return err
		}

		u, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("username", "has already been taken")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Get returns a user by ID or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return u, nil
}

// IssueSession returns a signed session token for an existing user.
func (s *UserService) IssueSession(ctx context.Context, userID string) (string, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return "", err
	}
	token, err := auth.GenerateToken(userID, s.jwtSecret, s.sessionTokenValidityDuration, s.clock.Now())
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Authenticate validates a session token and returns its user ID.
func (s *UserService) Authenticate(sessionToken string) (string, error) {
	return auth.GetUserIDFromToken(sessionToken, s.jwtSecret)
}

// SignIn records a provider identity, as Register does, and returns the user
// together with a fresh session token.
func (s *UserService) SignIn(ctx context.Context, user *models.User) (*models.User, string, error) {
	u, err := s.Register(ctx, user)
	if err != nil {
		return nil, "", err
	}
	token, err := s.IssueSession(ctx, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
