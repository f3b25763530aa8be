// Package grpc exposes the link service over gRPC.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/intercepters"
	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

// Server wraps the gRPC server and dependencies.
type Server struct {
	grpcServer *grpc.Server
	logger     *zap.Logger
}

// New creates a gRPC server for svc. Short links are built on publicURL,
// since there is no Host header to derive them from.
func New(svc service.LinkServiceIface, publicURL string, logger *zap.Logger) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			intercepters.RealIPInterceptor,
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			recovery.UnaryServerInterceptor(intercepters.RecoveryOption(logger)),
		),
	)

	RegisterLinksServer(s, &ShortenerServer{
		Service: svc,
		BaseURL: publicURL,
		Logger:  logger,
	})

	return &Server{
		grpcServer: s,
		logger:     logger,
	}
}

// Serve accepts connections on lis until GracefulStop.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	err := s.grpcServer.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// GracefulStop waits for in-flight calls and shuts down the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// ShortenerServer implements LinksServer on top of the link service.
type ShortenerServer struct {
	Service service.LinkServiceIface
	BaseURL string
	Logger  *zap.Logger
}

func (s *ShortenerServer) Shorten(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, service.ErrEmptyURL.Error())
	}

	link, _, err := s.Service.Shorten(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) || errors.Is(err, service.ErrURLTooLong) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.log().Error("cannot shorten link", zap.String("url", req.GetValue()), zap.Error(err))
		return nil, status.Error(codes.Internal, "Could not shorten link")
	}

	resp := models.NewShortenResponse(s.BaseURL, link.OriginalURL, link.ID)
	out, err := structpb.NewStruct(map[string]any{
		"original_url": resp.OriginalURL,
		"short_url":    resp.ShortURL,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *ShortenerServer) Resolve(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "identifier is required")
	}

	target, err := s.Service.Resolve(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "Link not found")
		}
		s.log().Error("cannot resolve link", zap.String("id", req.GetValue()), zap.Error(err))
		return nil, status.Error(codes.Internal, "Could not retrieve link")
	}

	return wrapperspb.String(target), nil
}

func (s *ShortenerServer) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
