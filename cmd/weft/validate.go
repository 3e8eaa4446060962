package main

import (
	"fmt"

	"github.com/spf13/cobra"

	weft "github.com/weftworks/weft"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow-file>...",
	Short: "Validate workflow files without running them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := weft.New()

		var failed bool
		for _, path := range args {
			def, err := loadDefinition(path)
			if err == nil {
				err = engine.Validate(def)
			}
			if err != nil {
				failed = true
				fmt.Printf("INVALID  %s: %v\n", path, err)
				continue
			}
			fmt.Printf("OK       %s (%s, %d nodes, %d edges)\n", path, def.ID, len(def.Nodes), len(def.Edges))
		}
		if failed {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
