package errors

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToGRPCError는 에러를 gRPC status 에러로 변환합니다
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}

	// 이미 status 에러인 경우 그대로 반환
	if _, ok := status.FromError(err); ok {
		return err
	}

	if msg, ok := publicMessage(err); ok {
		_, grpcCode := GetCodeMapping(CodeOf(err))
		return status.Error(codes.Code(grpcCode), msg)
	}

	// 내부 에러 메시지는 외부로 노출하지 않습니다
	return status.Error(codes.Internal, "internal error")
}
