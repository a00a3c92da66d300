package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ybieul/saas-barbearia/libs/grpcx"
)

// newHealthCmd probes the grpc.health.v1 endpoint of a running
// booking-service, for use as an exec probe.
func newHealthCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the booking-service gRPC health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := grpcx.NewClient(v.GetString("grpc-addr"), grpcx.ClientOptions{})
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), v.GetDuration("probe-timeout"))
			defer cancel()
			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{
				Service: v.GetString("service"),
			})
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service is %s", resp.GetStatus())
			}
			return nil
		},
	}
	cmd.Flags().String("grpc-addr", "localhost:9083", "booking-service gRPC address")
	cmd.Flags().String("service", "booking-service", "service name to check; empty checks the server")
	cmd.Flags().Duration("probe-timeout", 3*time.Second, "RPC timeout")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}
