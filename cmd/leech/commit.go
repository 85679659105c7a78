package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/commitpipeline"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Snapshot configured tables and append a block to the local chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		lock, err := acquireLock()
		if err != nil {
			return err
		}
		defer lock.Release()

		store, err := openStore()
		if err != nil {
			return err
		}

		tables, err := buildCommitTables()
		if err != nil {
			return err
		}

		res, err := commitpipeline.Commit(context.Background(), store, tables)
		if err != nil {
			return err
		}

		changed := 0
		for _, d := range res.Deltas {
			if !d.IsEmpty() {
				changed++
			}
		}
		if changed == 0 {
			fmt.Printf("no changes; recorded empty block %s\n", res.BlockID)
			return nil
		}
		fmt.Printf("committed block %s (parent %s), %d table(s) changed\n", res.BlockID, res.ParentID, changed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
}
