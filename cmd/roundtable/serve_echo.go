package main

import (
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/ashureev/roundtable/internal/generator"
)

var listenAddr string

var serveEchoCmd = &cobra.Command{
	Use:   "serve-echo",
	Short: "Serve the echo generator over gRPC",
	Long: `Serve the echo generator on the gRPC generation service so a server
started with GENERATOR_BACKEND=grpc can run without a model.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		lis, err := net.Listen("tcp", listenAddr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		srv := grpc.NewServer()
		generator.RegisterServer(srv, generator.Echo{})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			srv.GracefulStop()
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "echo generator listening on %s\n", lis.Addr())
		if err := srv.Serve(lis); err != nil {
			slog.Error("gRPC server stopped", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	serveEchoCmd.Flags().StringVar(&listenAddr, "listen", ":50051", "Listen address")
}
