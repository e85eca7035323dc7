package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/server/auth"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const (
	userIDKey      ctxKey = "userID"
	accessTokenKey ctxKey = "accessToken"
)

func authorization(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// authInterceptor authenticates the caller. Token management methods take
// a session JWT; WhoAmI takes an API access token.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	switch info.FullMethod {
	case methodIssueAccessToken, methodListAccessTokens, methodRevokeAccessToken:
		session, ok := auth.ParseBearer(authorization(ctx))
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
		userID, err := s.sessions.Authenticate(session)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid session")
		}
		ctx = context.WithValue(ctx, userIDKey, userID)

	case methodWhoAmI:
		token, ok, err := s.tokens.FromAuthorization(ctx, authorization(ctx))
		if err != nil {
			s.logger.Error(ctx, "access token lookup failed", "error", err)
			return nil, status.Error(codes.Internal, "internal error")
		}
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid access token")
		}
		ctx = context.WithValue(ctx, userIDKey, token.UserID)
		ctx = context.WithValue(ctx, accessTokenKey, token)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func accessTokenFromContext(ctx context.Context) (*models.AccessToken, bool) {
	t, ok := ctx.Value(accessTokenKey).(*models.AccessToken)
	return t, ok && t != nil
}
