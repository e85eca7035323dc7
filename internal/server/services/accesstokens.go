// Package services contains server-side business logic. This file implements
// AccessTokenService, which issues, resolves, lists and revokes API access
// tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/config"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classroom/internal/timex"
	"github.com/google/uuid"
)

// CreateAccessTokenParams describes a token to issue. Only OwnerID is
// required; a nil ExpiresAt means "validity from config after now" and an
// empty Secret means "generate one".
type CreateAccessTokenParams struct {
	OwnerID   string
	ExpiresAt *time.Time
	Secret    string
}

// AccessTokenService is the access token store. Token state is never
// persisted; it is always derived from the service clock.
type AccessTokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	clock       timex.Clock
	logger      logging.Logger

	validity    time.Duration
	secretSize  int
	retryBudget int

	generateSecret func(size int) (string, error)
	newID          func() string
}

// NewAccessTokenService constructs an AccessTokenService from server config.
func NewAccessTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, clock timex.Clock, logger logging.Logger) *AccessTokenService {
	validity := cfg.AccessTokenValidityDuration
	if validity <= 0 {
		validity = config.DefaultAccessTokenValidity
	}
	retries := cfg.AccessTokenRetryBudget
	if retries < 1 {
		retries = 1
	}
	size := cfg.AccessTokenSecretSize
	if size < 16 {
		size = 16
	}
	return &AccessTokenService{
		db:             db,
		repomanager:    m,
		clock:          clock,
		logger:         logger.With("module", "access_tokens"),
		validity:       validity,
		secretSize:     size,
		retryBudget:    retries,
		generateSecret: common.MakeRandHexString,
		newID:          uuid.NewString,
	}
}

// Create issues a new token for p.OwnerID.
//
// A generated secret that collides with an existing one is regenerated, up
// to the configured retry budget. A caller-supplied secret is never
// regenerated. Both exhaustion cases, and a missing owner, are reported as
// *common.ValidationError; nothing is persisted then.
func (s *AccessTokenService) Create(ctx context.Context, p CreateAccessTokenParams) (*models.AccessToken, error) {
	if strings.TrimSpace(p.OwnerID) == "" {
		return nil, common.NewValidationError("owner", "is required")
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.validity)
	if p.ExpiresAt != nil {
		expiresAt = *p.ExpiresAt
	}

	attempts := s.retryBudget
	if p.Secret != "" {
		attempts = 1
	}

	repo := s.repomanager.AccessTokens(s.db)

	for attempt := 1; attempt <= attempts; attempt++ {
		secret := p.Secret
		if secret == "" {
			var err error
			if secret, err = s.generateSecret(s.secretSize); err != nil {
				return nil, fmt.Errorf("error generating secret: %w", err)
			}
		}

		token := &models.AccessToken{
			ID:        s.newID(),
			UserID:    p.OwnerID,
			Secret:    secret,
			// timestamptz keeps microseconds; the expiry is kept exact.
			CreatedAt: now.Truncate(time.Microsecond),
			ExpiresAt: expiresAt,
		}

		err := repo.Create(ctx, token)
		if err == nil {
			s.logger.Info(ctx, "access token issued", "token_id", token.ID, "user_id", token.UserID, "expires_at", token.ExpiresAt)
			return token, nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			if errors.Is(err, common.ErrorValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("error creating access token: %w", err)
		}

		s.logger.Warn(ctx, "access token secret collision", "user_id", p.OwnerID, "attempt", attempt)
	}

	return nil, common.NewValidationError("secret", "has already been taken")
}

// FindActive resolves secret to a token that is active now. "Not found"
// (unknown, expired or empty secret) is reported as ok == false with a nil
// error; err is set only for infrastructure failures.
func (s *AccessTokenService) FindActive(ctx context.Context, secret string) (token *models.AccessToken, ok bool, err error) {
	if secret == "" {
		return nil, false, nil
	}

	repo := s.repomanager.AccessTokens(s.db)
	token, err = repo.FindActiveBySecret(ctx, secret, s.clock.Now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error searching access token: %w", err)
	}
	return token, true, nil
}

// FromAuthorization resolves an Authorization header value. Anything other
// than "Bearer <secret>", including an empty value, resolves to not found.
func (s *AccessTokenService) FromAuthorization(ctx context.Context, header string) (*models.AccessToken, bool, error) {
	secret, ok := auth.ParseBearer(header)
	if !ok {
		return nil, false, nil
	}
	return s.FindActive(ctx, secret)
}

// ListActive returns every active token, without secrets.
func (s *AccessTokenService) ListActive(ctx context.Context) ([]models.AccessToken, error) {
	tokens, err := s.repomanager.AccessTokens(s.db).ListActive(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("error listing access tokens: %w", err)
	}
	return tokens, nil
}

// ListActiveForUser returns userID's active tokens, without secrets.
func (s *AccessTokenService) ListActiveForUser(ctx context.Context, userID string) ([]models.AccessToken, error) {
	tokens, err := s.repomanager.AccessTokens(s.db).ListActiveByUser(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("error listing access tokens: %w", err)
	}
	return tokens, nil
}

// Revoke deletes token id on behalf of its owner. Tokens that do not exist
// or belong to someone else yield common.ErrorNotFound.
func (s *AccessTokenService) Revoke(ctx context.Context, id, userID string) error {
	if err := s.repomanager.AccessTokens(s.db).Delete(ctx, id, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error revoking access token: %w", err)
	}
	s.logger.Info(ctx, "access token revoked", "token_id", id, "user_id", userID)
	return nil
}

// Prune deletes expired tokens and returns how many were removed.
func (s *AccessTokenService) Prune(ctx context.Context) (int64, error) {
	n, err := s.repomanager.AccessTokens(s.db).DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("error pruning access tokens: %w", err)
	}
	if n > 0 {
		s.logger.Info(ctx, "expired access tokens pruned", "count", n)
	}
	return n, nil
}

// IsActive reports whether token is active at the service clock's now.
func (s *AccessTokenService) IsActive(token *models.AccessToken) bool {
	return token.IsActive(s.clock.Now())
}

// State reports whether token is active or expired at the service clock's now.
func (s *AccessTokenService) State(token *models.AccessToken) models.TokenState {
	return token.State(s.clock.Now())
}

// ExpiresIn returns the whole seconds token has left, never negative.
func (s *AccessTokenService) ExpiresIn(token *models.AccessToken) int64 {
	return token.ExpiresIn(s.clock.Now())
}
