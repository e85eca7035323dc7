package tokenctl

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/config"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/accesstokens"
	"github.com/dmitrijs2005/classroom/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"github.com/dmitrijs2005/classroom/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type memManager struct {
	repomanager.RepositoryManager
	repo *accesstokens.MemoryRepository
}

func (m memManager) AccessTokens(dbx.DBTX) accesstokens.Repository { return m.repo }

type fakeUsers struct {
	registered []models.User
}

func (f *fakeUsers) Register(ctx context.Context, u *models.User) (*models.User, error) {
	if strings.ContainsRune(u.UserName, ' ') {
		return nil, common.NewValidationError("username", "is invalid")
	}
	if u.Role == "" {
		u.Role = models.RoleMember
	}
	u.ID = "user-" + u.UID
	f.registered = append(f.registered, *u)
	return u, nil
}

type harness struct {
	cli    *CLI
	out    *bytes.Buffer
	svc    *services.AccessTokenService
	users  *fakeUsers
	opened []string
	closed int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	h := &harness{out: &bytes.Buffer{}, users: &fakeUsers{}}
	h.svc = services.NewAccessTokenService(nil, memManager{repo: accesstokens.NewMemoryRepository()}, cfg, timex.FixedClock{T: t0}, logging.Nop{})
	h.cli = &CLI{
		out: h.out,
		in:  strings.NewReader(""),
		open: func(ctx context.Context, dsn string) (*Backend, func() error, error) {
			h.opened = append(h.opened, dsn)
			return &Backend{Tokens: h.svc, Users: h.users}, func() error { h.closed++; return nil }, nil
		},
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	return h.cli.Run(context.Background(), args)
}

func TestIssueListRevoke(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "issue", "--user", "u1", "--expires-at", "2024-03-01T13:00:00Z"))
	assert.Contains(t, h.out.String(), "expires_at: 2024-03-01T13:00:00Z")

	tokens, err := h.svc.ListActiveForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	id := tokens[0].ID

	require.NoError(t, h.run(t, "list"))
	assert.Contains(t, h.out.String(), id)
	assert.Contains(t, h.out.String(), "3600s")

	require.NoError(t, h.run(t, "list", "--user", "u2"))
	assert.NotContains(t, h.out.String(), id)

	err = h.run(t, "revoke", "--user", "u2", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	require.NoError(t, h.run(t, "revoke", "--user", "u1", id))
	assert.Equal(t, "revoked "+id+"\n", h.out.String())

	assert.Equal(t, len(h.opened), h.closed)
}

func TestIssue_DefaultDSNAndFlagOverride(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "issue", "-u", "u1"))
	require.NoError(t, h.run(t, "--dsn", "postgres://other/db", "issue", "-u", "u1"))

	require.Len(t, h.opened, 2)
	assert.Contains(t, h.opened[0], "/classroom")
	assert.Equal(t, "postgres://other/db", h.opened[1])
}

func TestIssue_Errors(t *testing.T) {
	h := newHarness(t)

	require.Error(t, h.run(t, "issue"))
	require.Error(t, h.run(t, "issue", "-u", "u1", "--expires-at", "tomorrow"))
	assert.Empty(t, h.opened)

	h.cli.open = func(ctx context.Context, dsn string) (*Backend, func() error, error) {
		return nil, nil, errors.New("db ping error")
	}
	require.ErrorContains(t, h.run(t, "issue", "-u", "u1"), "db ping error")
}

func TestInspect(t *testing.T) {
	h := newHarness(t)
	token, err := h.svc.Create(context.Background(), services.CreateAccessTokenParams{OwnerID: "u1", Secret: "abc"})
	require.NoError(t, err)

	h.cli.in = strings.NewReader("abc\n")
	require.NoError(t, h.run(t, "inspect"))
	assert.Contains(t, h.out.String(), "owner:      u1")
	assert.Contains(t, h.out.String(), token.ID)

	h.cli.in = strings.NewReader("nope\n")
	require.NoError(t, h.run(t, "inspect"))
	assert.Equal(t, "not found\n", h.out.String())
}

func TestPrune(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Create(context.Background(), services.CreateAccessTokenParams{OwnerID: "u1", ExpiresAt: &t0})
	require.NoError(t, err)

	require.NoError(t, h.run(t, "prune"))
	assert.Equal(t, "pruned 1 expired token(s)\n", h.out.String())
}

func TestUserAdd(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "user", "add", "--provider", "github", "--uid", "42", "--username", "octo", "--email", "o@example.com"))
	assert.Contains(t, h.out.String(), "id:         user-42")
	assert.Contains(t, h.out.String(), "role:       member")
	require.Len(t, h.users.registered, 1)
	assert.Equal(t, "o@example.com", h.users.registered[0].Email)

	require.NoError(t, h.run(t, "user", "add", "--provider", "github", "--uid", "7", "--username", "root", "--role", "admin"))
	assert.Contains(t, h.out.String(), "role:       admin")

	require.Error(t, h.run(t, "user", "add", "--provider", "github", "--uid", "8", "--username", "x", "--role", "owner"))
	require.Error(t, h.run(t, "user", "add", "--provider", "github", "--uid", "8"))
	require.ErrorIs(t, h.run(t, "user", "add", "--provider", "github", "--uid", "8", "--username", "two words"), common.ErrorValidation)

	require.Len(t, h.users.registered, 2)
	assert.Equal(t, len(h.opened), h.closed)
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run(t, "--help"))
	assert.Contains(t, h.out.String(), "issue")
}
