package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/buffer"
	"github.com/untoldecay/leech/internal/diffgen"
)

var diffOutPath string

var diffCmd = &cobra.Command{
	Use:   "diff [ancestor-block-id]",
	Short: "Package a patch folding the chain from HEAD back to an ancestor (default genesis)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		finalID := buffer.GenesisID
		if len(args) == 1 {
			resolved, ok := store.BlockIDFromArgument(args[0])
			if !ok {
				return fmt.Errorf("diff: no unique block matches %q", args[0])
			}
			finalID = resolved
		}

		patch, err := diffgen.Diff(store, finalID)
		if err != nil {
			return err
		}

		data := patch.Compose()
		if diffOutPath == "" || diffOutPath == "-" {
			_, err = os.Stdout.Write(data)
			return err
		}
		return os.WriteFile(diffOutPath, data, 0o644)
	},
}

func init() {
	diffCmd.Flags().StringVarP(&diffOutPath, "output", "o", "", "write the patch to this file instead of stdout")
	rootCmd.AddCommand(diffCmd)
}
