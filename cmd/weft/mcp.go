package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long:  `Exposes the stored workflows as MCP tools so agent hosts can list and run them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		graphsDir, _ := cmd.Flags().GetString("graphs")
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		graphs, err := loadGraphDir(graphsDir)
		if err != nil {
			return err
		}

		engine := weft.New(
			weft.WithLogger(logging.NewJSON(os.Stderr, level)),
			weft.WithGraphStore(graphs),
		)
		srv := mcp.NewServer(engine)

		switch transport {
		case "stdio":
			return srv.ServeStdio()
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ServeSSE(ctx, port)
		default:
			return fmt.Errorf("unknown transport %q (expected stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("graphs", "", "Directory of workflow files to expose")
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for the SSE transport")
}
