package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/apply"
	"github.com/untoldecay/leech/internal/patchenv"
)

var (
	applyPeer      string
	applyPatchPath string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Ingest a patch produced by 'leech diff' on a peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if applyPeer == "" {
			return fmt.Errorf("apply: --peer is required")
		}

		var data []byte
		var err error
		if applyPatchPath == "" || applyPatchPath == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(applyPatchPath)
		}
		if err != nil {
			return fmt.Errorf("apply: reading patch: %w", err)
		}

		patch, err := patchenv.Parse(data)
		if err != nil {
			return err
		}

		lock, err := acquireLock()
		if err != nil {
			return err
		}
		defer lock.Release()

		store, err := openStore()
		if err != nil {
			return err
		}

		tables, err := buildApplyTables()
		if err != nil {
			return err
		}

		ident := apply.Identity{UIDField: cfg.UIDField, UIDValue: cfg.UIDValue}
		if err := apply.Apply(context.Background(), store, applyPeer, patch, tables, ident, log); err != nil {
			return err
		}
		fmt.Printf("applied patch from %q, lastseen now %s\n", applyPeer, patch.LastKnown)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyPeer, "peer", "", "name of the peer this patch came from")
	applyCmd.Flags().StringVarP(&applyPatchPath, "input", "i", "", "read the patch from this file instead of stdin")
	rootCmd.AddCommand(applyCmd)
}
