package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/diffgen"
)

var rebaseOutPath string

var rebaseCmd = &cobra.Command{
	Use:   "rebase",
	Short: "Package every configured table's current state as a single bootstrap patch",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables, err := buildRebaseTables()
		if err != nil {
			return err
		}

		patch, err := diffgen.Rebase(context.Background(), tables)
		if err != nil {
			return err
		}

		data := patch.Compose()
		if rebaseOutPath == "" || rebaseOutPath == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(rebaseOutPath, data, 0o644)
	},
}

func init() {
	rebaseCmd.Flags().StringVarP(&rebaseOutPath, "output", "o", "", "write the patch to this file instead of stdout")
	rootCmd.AddCommand(rebaseCmd)
}
