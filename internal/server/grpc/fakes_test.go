package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions map[string]string

func (f fakeSessions) Authenticate(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", common.ErrInvalidToken
}

// SignIn derives the user ID and session token from the uid.
func (f fakeSessions) SignIn(ctx context.Context, u *models.User) (*models.User, string, error) {
	if u.Provider == "" {
		return nil, "", common.NewValidationError("provider", "is required")
	}
	u.ID = "user-" + u.UID
	u.Role = models.RoleMember
	token := "jwt-" + u.UID
	f[token] = u.ID
	return u, token, nil
}

type fakeTokens struct {
	bySecret map[string]*models.AccessToken

	created   []services.CreateAccessTokenParams
	createErr error
	findErr   error
	listErr   error
	revokeErr error
	revoked   []string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{bySecret: map[string]*models.AccessToken{}}
}

func (f *fakeTokens) Create(ctx context.Context, p services.CreateAccessTokenParams) (*models.AccessToken, error) {
	f.created = append(f.created, p)
	if f.createErr != nil {
		return nil, f.createErr
	}
	exp := t0.Add(time.Hour)
	if p.ExpiresAt != nil {
		exp = *p.ExpiresAt
	}
	return &models.AccessToken{ID: "tok-1", UserID: p.OwnerID, Secret: "s3cret", CreatedAt: t0, ExpiresAt: exp}, nil
}

func (f *fakeTokens) FromAuthorization(ctx context.Context, header string) (*models.AccessToken, bool, error) {
	if f.findErr != nil {
		return nil, false, f.findErr
	}
	secret, ok := auth.ParseBearer(header)
	if !ok {
		return nil, false, nil
	}
	t, ok := f.bySecret[secret]
	return t, ok, nil
}

func (f *fakeTokens) ListActiveForUser(ctx context.Context, userID string) ([]models.AccessToken, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.AccessToken
	for _, t := range f.bySecret {
		if t.UserID == userID {
			out = append(out, t.Redacted())
		}
	}
	return out, nil
}

func (f *fakeTokens) Revoke(ctx context.Context, id, userID string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, id+"/"+userID)
	return nil
}

func (f *fakeTokens) ExpiresIn(t *models.AccessToken) int64 { return t.ExpiresIn(t0) }

// startBufServer runs the server over an in-memory listener and returns a
// connected client.
func startBufServer(t *testing.T, sessions Sessions, tokens AccessTokens) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("bufnet", logging.Nop{}, sessions, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		<-done
	})
	return conn
}

func withAuth(ctx context.Context, value string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AuthorizationHeaderName, value)
}
