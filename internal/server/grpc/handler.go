package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// SignIn records the provider identity of a user who completed OAuth and
// returns a session token for the token management methods.
func (s *GRPCServer) SignIn(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := req.GetFields()
	user := &models.User{
		Provider: f["provider"].GetStringValue(),
		UID:      f["uid"].GetStringValue(),
		UserName: f["username"].GetStringValue(),
		Email:    f["email"].GetStringValue(),
		Name:     f["name"].GetStringValue(),
	}

	u, token, err := s.sessions.SignIn(ctx, user)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Signed in", "user_id", u.ID, "provider", u.Provider)
	return structpb.NewStruct(map[string]any{
		"user_id":       u.ID,
		"role":          u.Role,
		"session_token": token,
	})
}

func (s *GRPCServer) IssueAccessToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	params := services.CreateAccessTokenParams{OwnerID: userID}
	if v, ok := req.GetFields()["expires_at"]; ok && v.GetStringValue() != "" {
		t, err := time.Parse(time.RFC3339, v.GetStringValue())
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "expires_at: must be RFC 3339")
		}
		params.ExpiresAt = &t
	}

	token, err := s.tokens.Create(ctx, params)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return structpb.NewStruct(map[string]any{
		"id":           token.ID,
		"access_token": token.Secret,
		"expires_at":   token.ExpiresAt.UTC().Format(time.RFC3339),
		"expires_in":   s.tokens.ExpiresIn(token),
	})
}

func (s *GRPCServer) ListAccessTokens(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	tokens, err := s.tokens.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	list := make([]any, 0, len(tokens))
	for i := range tokens {
		t := &tokens[i]
		list = append(list, map[string]any{
			"id":         t.ID,
			"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
			"expires_at": t.ExpiresAt.UTC().Format(time.RFC3339),
			"expires_in": s.tokens.ExpiresIn(t),
		})
	}
	return structpb.NewStruct(map[string]any{"tokens": list})
}

func (s *GRPCServer) RevokeAccessToken(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id: is required")
	}

	if err := s.tokens.Revoke(ctx, id, userID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	token, ok := accessTokenFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	return structpb.NewStruct(map[string]any{
		"user_id":    token.UserID,
		"token_id":   token.ID,
		"expires_in": s.tokens.ExpiresIn(token),
	})
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		s.logger.Error(ctx, err.Error())
		return status.Error(codes.Internal, "internal error")
	}
}

var _ AccessTokens = (*services.AccessTokenService)(nil)
var _ Sessions = (*services.UserService)(nil)
