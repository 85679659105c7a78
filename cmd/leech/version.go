package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/patchenv"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("leech version %s (%s), patch envelope version %d\n", Version, Build, patchenv.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
