package grpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	grpcHandler "github.com/wekeepgrowing/semo-enrollment/internal/adapter/handler/grpc"
	"github.com/wekeepgrowing/semo-enrollment/internal/config"
)

type grantAll struct{}

func (grantAll) CheckAccess(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{"granted": true})
}

func TestServer_HealthAndAccess(t *testing.T) {
	srv := NewServer(config.Default(), zap.NewNop(), grantAll{})
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	res, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: grpcHandler.AccessGateServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.GetStatus())

	out, err := grpcHandler.CheckAccess(context.Background(), conn, "student-1", "course-1")
	require.NoError(t, err)
	assert.True(t, out.GetFields()["granted"].GetBoolValue())
}
