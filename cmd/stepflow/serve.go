package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/stepflow"
	httpAdapter "github.com/aretw0/stepflow/pkg/adapters/http"
	"github.com/aretw0/stepflow/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/stepflow/pkg/adapters/redis"
	"github.com/aretw0/stepflow/pkg/flowfile"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/aretw0/stepflow/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve <flowfile>",
	Short: "Serve a flow over HTTP",
	Long:  `Compiles the flow definition and serves it as redirect-driven HTML forms, one session per client.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		redisPassword, _ := cmd.Flags().GetString("redis-password")
		redisDB, _ := cmd.Flags().GetInt("redis-db")
		ttl, _ := cmd.Flags().GetDuration("session-ttl")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		logger := loggerFromFlags(cmd)

		flow, err := flowfile.ParseFile(args[0])
		if err != nil {
			return fmt.Errorf("parse flow: %w", err)
		}
		if err := flow.Validate(); err != nil {
			return fmt.Errorf("validate flow: %w", err)
		}

		var store ports.SnapshotStore
		if redisAddr != "" {
			redisStore := redisAdapter.New(redisAddr, redisPassword, redisDB, redisAdapter.WithTTL(ttl))
			defer redisStore.Close()
			store = redisStore
			logger.Info("using redis snapshot store", "address", redisAddr)
		} else {
			store = memory.NewStore()
		}

		factory := func(opts ...stepflow.Option) (*stepflow.Session, error) {
			return flow.Compile(append(opts, stepflow.WithLogger(logger))...)
		}
		manager := session.NewManager(factory,
			session.WithSnapshotStore(store),
			session.WithLogger(logger),
		)

		serverOpts := []httpAdapter.Option{httpAdapter.WithLogger(logger)}
		if withMetrics {
			serverOpts = append(serverOpts, httpAdapter.WithMetrics(observability.NewMetrics(prometheus.NewRegistry())))
		}

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: httpAdapter.NewServer(manager, serverOpts...).Handler(),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "address", srv.Addr, "flow", args[0])
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown incomplete", "error", err)
				return srv.Close()
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for session snapshots (empty keeps sessions in memory)")
	serveCmd.Flags().String("redis-password", "", "Redis password")
	serveCmd.Flags().Int("redis-db", 0, "Redis database number")
	serveCmd.Flags().Duration("session-ttl", 0, "Expire idle sessions after this duration (0 keeps them forever)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
