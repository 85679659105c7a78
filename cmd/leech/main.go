// Command leech is the reference CLI for the table-replication tool: commit
// snapshots a set of configured tables into the local chain, diff/rebase
// package a patch for a remote peer, apply ingests one, history and purge
// round out inspection and maintenance.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
