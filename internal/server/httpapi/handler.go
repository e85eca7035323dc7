// Package httpapi serves the JSON API the classroom frontend and API
// clients use to manage and present access tokens.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"github.com/rs/cors"
)

type AccessTokens interface {
	Create(ctx context.Context, p services.CreateAccessTokenParams) (*models.AccessToken, error)
	FromAuthorization(ctx context.Context, header string) (*models.AccessToken, bool, error)
	ListActive(ctx context.Context) ([]models.AccessToken, error)
	ListActiveForUser(ctx context.Context, userID string) ([]models.AccessToken, error)
	Revoke(ctx context.Context, id, userID string) error
	State(token *models.AccessToken) models.TokenState
	ExpiresIn(token *models.AccessToken) int64
}

// Sessions signs users in, authenticates their session tokens and loads the
// signed-in user.
type Sessions interface {
	SignIn(ctx context.Context, user *models.User) (*models.User, string, error)
	Authenticate(sessionToken string) (string, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

type Handler struct {
	tokens   AccessTokens
	sessions Sessions
	logger   logging.Logger
	origins  []string
}

func NewHandler(tokens AccessTokens, sessions Sessions, logger logging.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		tokens:   tokens,
		sessions: sessions,
		logger:   logger.With("module", "http_api"),
		origins:  allowedOrigins,
	}
}

// Routes returns the complete handler, CORS included.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", h.signIn)
	mux.Handle("POST /api/v1/access_tokens", h.RequireSession(http.HandlerFunc(h.createAccessToken)))
	mux.Handle("GET /api/v1/access_tokens", h.RequireSession(http.HandlerFunc(h.listAccessTokens)))
	mux.Handle("DELETE /api/v1/access_tokens/{id}", h.RequireSession(http.HandlerFunc(h.revokeAccessToken)))
	mux.Handle("GET /api/v1/admin/access_tokens", h.RequireSession(h.requireAdmin(http.HandlerFunc(h.listAllAccessTokens))))
	mux.Handle("GET /api/v1/me", h.RequireAccessToken(http.HandlerFunc(h.me)))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	c := cors.New(cors.Options{
		AllowedOrigins: h.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(mux)
}

type signInRequest struct {
	Provider string `json:"provider"`
	UID      string `json:"uid"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// signIn is called by the OAuth callback once the provider has confirmed the
// identity; it stores the user and hands back a session token.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.sessions.SignIn(r.Context(), &models.User{
		Provider: req.Provider,
		UID:      req.UID,
		UserName: req.UserName,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "Signed in", "user_id", u.ID, "provider", u.Provider)
	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id":       u.ID,
		"role":          u.Role,
		"session_token": token,
	})
}

type createRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

type tokenResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token,omitempty"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}

func (h *Handler) toResponse(t *models.AccessToken) tokenResponse {
	return tokenResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		AccessToken: t.Secret,
		State:       string(h.tokens.State(t)),
		CreatedAt:   t.CreatedAt.UTC(),
		ExpiresAt:   t.ExpiresAt.UTC(),
		ExpiresIn:   h.tokens.ExpiresIn(t),
	}
}

func (h *Handler) createAccessToken(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.tokens.Create(r.Context(), services.CreateAccessTokenParams{
		OwnerID:   userIDFromContext(r.Context()),
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(token))
}

func (h *Handler) listAccessTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListActiveForUser(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeTokens(w, tokens)
}

// listAllAccessTokens is the administrative view of every active token.
func (h *Handler) listAllAccessTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.tokens.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeTokens(w, tokens)
}

func (h *Handler) writeTokens(w http.ResponseWriter, tokens []models.AccessToken) {
	out := make([]tokenResponse, 0, len(tokens))
	for i := range tokens {
		out = append(out, h.toResponse(&tokens[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"access_tokens": out})
}

func (h *Handler) revokeAccessToken(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.Revoke(r.Context(), r.PathValue("id"), userIDFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	token, _ := AccessTokenFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":    token.UserID,
		"token_id":   token.ID,
		"expires_in": h.tokens.ExpiresIn(token),
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, err)
}
