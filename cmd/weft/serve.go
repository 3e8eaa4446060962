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

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/internal/server"
	"github.com/weftworks/weft/pkg/adapters/redis"
	"github.com/weftworks/weft/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the engine in server mode, exposing workflow runs and graph management as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		port, _ := cmd.Flags().GetString("port")
		graphsDir, _ := cmd.Flags().GetString("graphs")
		redisAddr, _ := cmd.Flags().GetString("redis")

		logger := logging.NewJSON(os.Stderr, level)

		graphs, err := loadGraphDir(graphsDir)
		if err != nil {
			return err
		}

		promReg := prometheus.NewRegistry()
		opts := []weft.Option{
			weft.WithLogger(logger),
			weft.WithGraphStore(graphs),
			weft.WithMetrics(observability.NewMetrics(promReg)),
		}
		if redisAddr != "" {
			history := redis.New(redisAddr, "", 0)
			defer history.Close()
			opts = append(opts, weft.WithHistoryStore(history))
		}

		engine := weft.New(opts...)
		handler := server.NewHandler(engine,
			server.WithLogger(logger),
			server.WithMetricsGatherer(promReg),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Weft Server on %s\n", srv.Addr)
			if graphsDir != "" {
				fmt.Printf("Serving workflows from: %s\n", graphsDir)
			}
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Weft Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("graphs", "", "Directory of workflow files to serve")
	serveCmd.Flags().String("redis", "", "Redis address for conversation history (host:port); empty disables persistence")
}
