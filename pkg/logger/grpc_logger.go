package logger

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewGrpcUnaryServerInterceptor는 단일 요청/응답 gRPC 메서드에 대한 로깅 인터셉터를 생성합니다.
// 헬스 체크 호출은 기록하지 않습니다.
func NewGrpcUnaryServerInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := time.Now()
		resp, err := handler(ctx, req)

		service := path.Dir(info.FullMethod)[1:]
		if service == "grpc.health.v1.Health" {
			return resp, err
		}

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("grpc.service", service),
			zap.String("grpc.method", path.Base(info.FullMethod)),
			zap.String("grpc.code", code.String()),
			zap.Duration("grpc.duration", time.Since(startTime)),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		logger.Check(grpcLogLevel(code), "gRPC 요청 처리").Write(fields...)
		return resp, err
	}
}

// grpcLogLevel은 상태 코드에 따른 로그 레벨을 결정합니다
func grpcLogLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.Canceled, codes.DeadlineExceeded, codes.NotFound, codes.InvalidArgument,
		codes.FailedPrecondition, codes.Unauthenticated, codes.PermissionDenied, codes.Unavailable:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
