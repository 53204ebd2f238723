package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpcHandler "github.com/wekeepgrowing/semo-enrollment/internal/adapter/handler/grpc"
	"github.com/wekeepgrowing/semo-enrollment/internal/config"
	"github.com/wekeepgrowing/semo-enrollment/pkg/logger"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	server *grpc.Server
	health *health.Server
}

func NewServer(cfg *config.Config, log *zap.Logger, access grpcHandler.AccessGateServer) *Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)))

	grpcHandler.RegisterAccessGateServer(srv, access)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(grpcHandler.AccessGateServiceName, healthpb.HealthCheckResponse_SERVING)

	if cfg.Service.Environment != "production" {
		reflection.Register(srv)
	}

	return &Server{
		config: cfg,
		logger: log,
		server: srv,
		health: hs,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.GRPC.Host, s.config.Server.GRPC.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve blocks serving on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))
	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		s.server.Stop()
	}
	return nil
}
