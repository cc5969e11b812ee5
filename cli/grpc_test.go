package cli

import (
	"context"
	"net"
	"testing"
	"time"

	storegrpc "github.com/appser/appser-store/internal/grpc"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fixedChecker string

func (f fixedChecker) Check(ctx context.Context) string { return string(f) }

func TestGRPCHealthCommand(t *testing.T) {
	logger.Init(logger.ERROR, false, nil)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := storegrpc.NewServer(fixedChecker(""), time.Minute)
	go srv.Serve(lis)
	defer srv.Stop()

	status, err := grpcHealth(context.Background(), lis.Addr().String(), storegrpc.ServiceName)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	_, err = grpcHealth(context.Background(), lis.Addr().String(), "unknown.Service")
	assert.Error(t, err)
}
