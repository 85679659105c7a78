package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var purgeBefore string

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Prune chain blocks older than every peer's lastseen floor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := parseWhen(purgeBefore, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("purge: parsing --before: %w", err)
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

		n, err := store.Purge(cutoff)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d block(s)\n", n)
		return nil
	},
}

func init() {
	purgeCmd.Flags().StringVar(&purgeBefore, "before", "", "purge blocks older than this time (natural language or unix seconds); default now")
	rootCmd.AddCommand(purgeCmd)
}
