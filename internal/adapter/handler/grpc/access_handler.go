package grpc

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/wekeepgrowing/semo-enrollment/internal/domain/enrollment"
	apperrors "github.com/wekeepgrowing/semo-enrollment/pkg/errors"
)

const (
	AccessGateServiceName = "semo.enrollment.v1.AccessGate"
	CheckAccessMethod     = "/" + AccessGateServiceName + "/CheckAccess"
)

// AccessChecker decides course access for a student
type AccessChecker interface {
	Check(ctx context.Context, studentID, courseID string) (enrollment.Access, error)
}

// AccessGateServer serves access checks to other platform services.
// Requests and responses are google.protobuf.Struct messages:
//
//	request:  {studentId, courseId}
//	response: {granted, status, canRenew, enrollmentId}
type AccessGateServer interface {
	CheckAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type AccessHandler struct {
	gate   AccessChecker
	logger *zap.Logger
}

func NewAccessHandler(gate AccessChecker, logger *zap.Logger) *AccessHandler {
	return &AccessHandler{gate: gate, logger: logger}
}

func (h *AccessHandler) CheckAccess(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	studentID := fields["studentId"].GetStringValue()
	courseID := fields["courseId"].GetStringValue()
	if studentID == "" || courseID == "" {
		return nil, status.Error(codes.InvalidArgument, "studentId and courseId are required")
	}

	access, err := h.gate.Check(ctx, studentID, courseID)
	if err != nil {
		apperrors.LogError(h.logger, err, "Access check failed",
			zap.String("student_id", studentID),
			zap.String("course_id", courseID))
		return nil, apperrors.ToGRPCError(err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"granted":      access.Granted,
		"status":       string(access.Status),
		"canRenew":     access.CanRenew,
		"enrollmentId": access.EnrollmentID,
	})
}

func checkAccessHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessGateServer).CheckAccess(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CheckAccessMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AccessGateServer).CheckAccess(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// AccessGateServiceDesc is registered in place of protoc-generated stubs.
// No descriptor file backs it, so Metadata stays empty.
var AccessGateServiceDesc = grpc.ServiceDesc{
	ServiceName: AccessGateServiceName,
	HandlerType: (*AccessGateServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CheckAccess",
			Handler:    checkAccessHandler,
		},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAccessGateServer attaches the access gate to a gRPC server
func RegisterAccessGateServer(s grpc.ServiceRegistrar, srv AccessGateServer) {
	s.RegisterService(&AccessGateServiceDesc, srv)
}

// CheckAccess is the client side of the access gate
func CheckAccess(ctx context.Context, cc grpc.ClientConnInterface, studentID, courseID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"studentId": studentID,
		"courseId":  courseID,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, CheckAccessMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
