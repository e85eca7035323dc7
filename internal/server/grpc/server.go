// Package grpc exposes access token management over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/classroom/internal/logging"
	"github.com/dmitrijs2005/classroom/internal/server/models"
	"github.com/dmitrijs2005/classroom/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// AccessTokens is the subset of services.AccessTokenService the server uses.
type AccessTokens interface {
	Create(ctx context.Context, p services.CreateAccessTokenParams) (*models.AccessToken, error)
	FromAuthorization(ctx context.Context, header string) (*models.AccessToken, bool, error)
	ListActiveForUser(ctx context.Context, userID string) ([]models.AccessToken, error)
	Revoke(ctx context.Context, id, userID string) error
	ExpiresIn(token *models.AccessToken) int64
}

// Sessions signs users in and validates the session tokens it hands out.
type Sessions interface {
	SignIn(ctx context.Context, user *models.User) (*models.User, string, error)
	Authenticate(sessionToken string) (string, error)
}

type GRPCServer struct {
	UnimplementedAccessTokenServiceServer
	address  string
	sessions Sessions
	tokens   AccessTokens
	logger   logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, sessions Sessions, tokens AccessTokens) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		tokens:   tokens,
	}
}

// Register installs the access token service and the standard health
// service on srv.
func (s *GRPCServer) Register(srv *grpc.Server) {
	RegisterAccessTokenServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
}

// NewServer builds a *grpc.Server with the auth interceptor and all
// services registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))
	s.Register(srv)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
