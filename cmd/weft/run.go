package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	weft "github.com/weftworks/weft"
	"github.com/weftworks/weft/internal/logging"
	"github.com/weftworks/weft/pkg/domain"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow-file>",
	Short: "Run a workflow file to completion and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		inputJSON, _ := cmd.Flags().GetString("input")
		startNode, _ := cmd.Flags().GetString("start")
		runID, _ := cmd.Flags().GetString("run-id")
		graphsDir, _ := cmd.Flags().GetString("graphs")

		def, err := loadDefinition(args[0])
		if err != nil {
			return err
		}

		input := map[string]any{}
		if inputJSON != "" {
			if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
				return fmt.Errorf("--input must be a JSON object: %w", err)
			}
		}

		graphs, err := loadGraphDir(graphsDir)
		if err != nil {
			return err
		}

		engine := weft.New(
			weft.WithLogger(logging.New(level)),
			weft.WithGraphStore(graphs),
		)
		if err := engine.Validate(def); err != nil {
			return err
		}

		var opts []weft.RunOption
		if startNode != "" {
			opts = append(opts, weft.WithStartNode(startNode))
		}
		if runID != "" {
			opts = append(opts, weft.WithRunID(runID))
		}

		state, runErr := engine.Run(context.Background(), def, input, opts...)
		if state == nil {
			return runErr
		}

		result := map[string]any{
			"runId":  state.RunID,
			"status": string(state.Status()),
			"steps":  state.CurrentStep(),
			"output": state.Output(),
		}
		if reason := state.FailureReason(); reason != "" {
			result["failureReason"] = reason
		}
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		if runErr != nil {
			os.Exit(1)
		}
		if state.Status() != domain.StatusCompleted {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("input", "i", "", "JSON object used as the run's input document")
	runCmd.Flags().String("start", "", "Node id to start from (overrides start resolution)")
	runCmd.Flags().String("run-id", "", "Pin the run id instead of generating one")
	runCmd.Flags().String("graphs", "", "Directory of stored workflows available to subflow nodes")
}
