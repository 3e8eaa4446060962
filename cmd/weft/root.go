package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "Weft is a concurrent graph execution engine for declarative workflows",
	Long: `Weft runs workflows described as node/edge documents: it resolves the
starting node, walks the graph concurrently and substitutes template
variables into each node's configuration before execution.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}
