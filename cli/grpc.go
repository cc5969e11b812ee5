package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	grpcAddr    string
	grpcService string
)

var grpcCmd = &cobra.Command{
	Use:   "grpc",
	Short: "Interact with the gRPC service",
	Long:  `Commands to interact with the Appser Store gRPC health service directly.`,
}

var grpcHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check serving status via gRPC",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := grpcAddr
		if addr == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			addr = fmt.Sprintf("%s:%d", cfg.Server.Host, 9092)
		}

		status, err := grpcHealth(cmd.Context(), addr, grpcService)
		if err != nil {
			printError("gRPC health check failed: " + err.Error())
			return err
		}
		if status != healthpb.HealthCheckResponse_SERVING {
			printError(fmt.Sprintf("%s is %s", addr, status))
			return fmt.Errorf("not serving")
		}
		printSuccess(fmt.Sprintf("%s is %s", addr, status))
		return nil
	},
}

func grpcHealth(ctx context.Context, addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("did not connect: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func init() {
	grpcHealthCmd.Flags().StringVar(&grpcAddr, "addr", "", "gRPC address (default <server.host>:9092)")
	grpcHealthCmd.Flags().StringVar(&grpcService, "service", "appser.Store", "Service name to check")

	grpcCmd.AddCommand(grpcHealthCmd)
}
