package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeSessions struct {
	byToken map[string]string
	users   map[string]*models.User
	getErr  error
}

func (f *fakeSessions) Authenticate(token string) (string, error) {
	if id, ok := f.byToken[token]; ok {
		return id, nil
	}
	return "", common.ErrInvalidToken
}

func (f *fakeSessions) SignIn(ctx context.Context, u *models.User) (*models.User, string, error) {
	if u.Provider == "" {
		return nil, "", common.NewValidationError("provider", "is required")
	}
	u.ID = "user-" + u.UID
	u.Role = models.RoleMember
	token := "jwt-" + u.UID
	f.byToken[token] = u.ID
	f.users[u.ID] = u
	return u, token, nil
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

type fakeTokens struct {
	bySecret  map[string]*models.AccessToken
	created   []services.CreateAccessTokenParams
	createErr error
	findErr   error
	listErr   error
	revokeErr error
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

func (f *fakeTokens) ListActive(ctx context.Context) ([]models.AccessToken, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.AccessToken
	for _, t := range f.bySecret {
		out = append(out, t.Redacted())
	}
	return out, nil
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

func (f *fakeTokens) Revoke(ctx context.Context, id, userID string) error { return f.revokeErr }

func (f *fakeTokens) State(t *models.AccessToken) models.TokenState { return t.State(t0) }

func (f *fakeTokens) ExpiresIn(t *models.AccessToken) int64 { return t.ExpiresIn(t0) }

func newSessions() *fakeSessions {
	return &fakeSessions{
		byToken: map[string]string{"jwt": "u1", "admin-jwt": "a1", "ghost-jwt": "gone"},
		users: map[string]*models.User{
			"u1": {ID: "u1", Role: models.RoleMember},
			"a1": {ID: "a1", Role: models.RoleAdmin},
		},
	}
}

func newTestHandlerWith(tokens *fakeTokens, sessions *fakeSessions) http.Handler {
	if tokens.bySecret == nil {
		tokens.bySecret = map[string]*models.AccessToken{}
	}
	return NewHandler(tokens, sessions, logging.Nop{}, []string{"http://localhost:4200"}).Routes()
}

func newTestHandler(tokens *fakeTokens) http.Handler {
	return newTestHandlerWith(tokens, newSessions())
}

func do(t *testing.T, h http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestCreateAccessToken(t *testing.T) {
	tokens := &fakeTokens{}
	h := newTestHandler(tokens)

	rec := do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer jwt", `{"expires_at":"2024-03-01T12:00:42Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "tok-1", body["id"])
	assert.Equal(t, "s3cret", body["access_token"])
	assert.Equal(t, "active", body["state"])
	assert.Equal(t, float64(42), body["expires_in"])

	require.Len(t, tokens.created, 1)
	assert.Equal(t, "u1", tokens.created[0].OwnerID)

	rec = do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer jwt", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, tokens.created[1].ExpiresAt)
}

func TestSignIn(t *testing.T) {
	tokens := &fakeTokens{}
	h := newTestHandler(tokens)

	rec := do(t, h, http.MethodPost, "/api/v1/sessions", "", `{"provider":"github","uid":"42","username":"octo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "user-42", body["user_id"])
	assert.Equal(t, "member", body["role"])

	rec = do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer "+body["session_token"].(string), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-42", tokens.created[0].OwnerID)

	rec = do(t, h, http.MethodPost, "/api/v1/sessions", "", `{"uid":"42"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "provider: is required", decode(t, rec)["error"])

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/sessions", "", "{").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/sessions", "", "").Code)
}

func TestCreateAccessToken_Errors(t *testing.T) {
	tokens := &fakeTokens{}
	h := newTestHandler(tokens)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/access_tokens", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer forged", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer jwt", "{").Code)

	tokens.createErr = common.NewValidationError("secret", "has already been taken")
	rec := do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer jwt", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "secret: has already been taken", decode(t, rec)["error"])

	tokens.createErr = errors.New("db down")
	rec = do(t, h, http.MethodPost, "/api/v1/access_tokens", "Bearer jwt", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decode(t, rec)["error"])
}

func TestListAccessTokens(t *testing.T) {
	tokens := &fakeTokens{bySecret: map[string]*models.AccessToken{
		"a": {ID: "t1", UserID: "u1", Secret: "a", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)},
		"b": {ID: "t2", UserID: "u2", Secret: "b", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)},
	}}
	h := newTestHandler(tokens)

	rec := do(t, h, http.MethodGet, "/api/v1/access_tokens", "Bearer jwt", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode(t, rec)["access_tokens"].([]any)
	require.Len(t, list, 1)
	item := list[0].(map[string]any)
	assert.Equal(t, "t1", item["id"])
	assert.NotContains(t, item, "access_token")

	tokens.listErr = errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/v1/access_tokens", "Bearer jwt", "").Code)
}

func TestListAllAccessTokens_AdminOnly(t *testing.T) {
	tokens := &fakeTokens{bySecret: map[string]*models.AccessToken{
		"a": {ID: "t1", UserID: "u1", Secret: "a", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)},
		"b": {ID: "t2", UserID: "u2", Secret: "b", CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)},
	}}
	sessions := newSessions()
	h := newTestHandlerWith(tokens, sessions)

	rec := do(t, h, http.MethodGet, "/api/v1/admin/access_tokens", "Bearer admin-jwt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["access_tokens"].([]any), 2)

	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/api/v1/admin/access_tokens", "Bearer jwt", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/admin/access_tokens", "Bearer ghost-jwt", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/admin/access_tokens", "", "").Code)

	sessions.getErr = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/v1/admin/access_tokens", "Bearer admin-jwt", "").Code)
}

func TestRevokeAccessToken(t *testing.T) {
	tokens := &fakeTokens{}
	h := newTestHandler(tokens)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/v1/access_tokens/t1", "Bearer jwt", "").Code)

	tokens.revokeErr = common.ErrorNotFound
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/v1/access_tokens/t1", "Bearer jwt", "").Code)
}

func TestMe(t *testing.T) {
	tokens := &fakeTokens{bySecret: map[string]*models.AccessToken{
		"abc": {ID: "t1", UserID: "u1", Secret: "abc", ExpiresAt: t0.Add(5 * time.Second)},
	}}
	h := newTestHandler(tokens)

	rec := do(t, h, http.MethodGet, "/api/v1/me", "Bearer abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"user_id": "u1", "token_id": "t1", "expires_in": float64(5)}, decode(t, rec))

	for _, header := range []string{"", "bearer abc", "Bearer", "Bearer ", "Bearer nope", "Basic abc"} {
		assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/api/v1/me", header, "").Code, header)
	}

	tokens.findErr = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(t, h, http.MethodGet, "/api/v1/me", "Bearer abc", "").Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestHandler(&fakeTokens{}), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(&fakeTokens{})

	preflight := func(origin, headers string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/access_tokens", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", headers)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// Browsers send the requested headers lower-cased and sorted.
	rec := preflight("http://localhost:4200", "authorization")
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://localhost:4200", "authorization,content-type")
	assert.Equal(t, "http://localhost:4200", rec.Header().Get("Access-Control-Allow-Origin"))

	// rs/cors only matches the normalized form.
	rec = preflight("http://localhost:4200", "Authorization")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://evil.example", "authorization")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
