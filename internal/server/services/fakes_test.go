package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/config"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/users"
	"github.com/dmitrijs2005/classroom/internal/timex"
)

// -------- test fakes --------

// fakeTokensRepo wraps the in-memory repository and lets tests inject
// failures per method.
type fakeTokensRepo struct {
	*accesstokens.MemoryRepository

	createErrs []error // consumed one per Create call
	findErr    error
	listErr    error
	deleteErr  error
	pruneErr   error

	createCalls int
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{MemoryRepository: accesstokens.NewMemoryRepository()}
}

func (f *fakeTokensRepo) Create(ctx context.Context, t *models.AccessToken) error {
	f.createCalls++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	return f.MemoryRepository.Create(ctx, t)
}

func (f *fakeTokensRepo) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*models.AccessToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryRepository.FindActiveBySecret(ctx, secret, now)
}

func (f *fakeTokensRepo) ListActive(ctx context.Context, now time.Time) ([]models.AccessToken, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryRepository.ListActive(ctx, now)
}

func (f *fakeTokensRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.AccessToken, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryRepository.ListActiveByUser(ctx, userID, now)
}

func (f *fakeTokensRepo) Delete(ctx context.Context, id, userID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryRepository.Delete(ctx, id, userID)
}

func (f *fakeTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	return f.MemoryRepository.DeleteExpired(ctx, now)
}

type fakeUsersRepo struct {
	users.Repository
	byID      map[string]*models.User
	createErr error
	getErr    error
	lookupErr error
}

func (f *fakeUsersRepo) GetByProviderUID(ctx context.Context, provider, uid string) (*models.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, u := range f.byID {
		if u.Provider == provider && u.UID == uid {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.byID == nil {
		f.byID = map[string]*models.User{}
	}
	if existing, ok := f.byID[u.ID]; ok {
		return existing, nil
	}
	cp := *u
	f.byID[u.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	u *fakeUsersRepo
	t *fakeTokensRepo
}

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) AccessTokens(db dbx.DBTX) accesstokens.Repository { return m.t }

// -------- helpers --------

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		SessionTokenValidityDuration: 15 * time.Minute,
		AccessTokenValidityDuration:  config.DefaultAccessTokenValidity,
		AccessTokenSecretSize:        32,
		AccessTokenRetryBudget:       3,
	}
}

// movableClock lets a test advance time between calls.
type movableClock struct{ now time.Time }

func (c *movableClock) Now() time.Time { return c.now }

func newTokenService(t *testing.T, clock timex.Clock) (*AccessTokenService, *fakeTokensRepo) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	repo := newFakeTokensRepo()
	svc := NewAccessTokenService(db, &fakeRepoManager{t: repo}, testConfig(), clock, logging.Nop{})
	return svc, repo
}

func nopLogger() logging.Logger { return logging.Nop{} }
