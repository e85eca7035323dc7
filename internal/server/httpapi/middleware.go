package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/models"
)

type ctxKey string

const (
	userIDKey      ctxKey = "userID"
	accessTokenKey ctxKey = "accessToken"
)

// RequireAccessToken admits requests carrying "Authorization: Bearer
// <secret>" for an active API access token and stores that token in the
// request context. Missing or malformed headers get a 401.
func (h *Handler) RequireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok, err := h.tokens.FromAuthorization(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			h.logger.Error(r.Context(), "access token lookup failed", "error", err)
			writeErrorMessage(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid access token")
			return
		}

		ctx := context.WithValue(r.Context(), accessTokenKey, token)
		ctx = context.WithValue(ctx, userIDKey, token.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession admits requests carrying a valid session JWT as a bearer
// credential.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := auth.ParseBearer(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		userID, err := h.sessions.Authenticate(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// requireAdmin must run after RequireSession.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.sessions.Get(r.Context(), userIDFromContext(r.Context()))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				writeErrorMessage(w, http.StatusUnauthorized, "user not found")
				return
			}
			h.fail(w, r, err)
			return
		}
		if !user.IsAdmin() {
			writeErrorMessage(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AccessTokenFromContext returns the token stored by RequireAccessToken.
func AccessTokenFromContext(ctx context.Context) (*models.AccessToken, bool) {
	t, ok := ctx.Value(accessTokenKey).(*models.AccessToken)
	return t, ok && t != nil
}

func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
