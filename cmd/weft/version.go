package main

import (
	"fmt"

	"github.com/spf13/cobra"

	weft "github.com/weftworks/weft"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("weft %s\n", weft.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
