package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/adapter/csvfile"
	"github.com/untoldecay/leech/internal/adapter/sqlstore"
	"github.com/untoldecay/leech/internal/apply"
	"github.com/untoldecay/leech/internal/chainstore"
	"github.com/untoldecay/leech/internal/commitpipeline"
	"github.com/untoldecay/leech/internal/config"
	"github.com/untoldecay/leech/internal/diffgen"
	"github.com/untoldecay/leech/internal/lockfile"
	"github.com/untoldecay/leech/internal/logging"
	"github.com/untoldecay/leech/internal/tablestate"
)

// Version is overridden by ldflags at build time, matching the teacher's
// version.go pattern.
var (
	Version = "0.1.0"
	Build   = "dev"
)

var (
	workDirFlag string
	informFlag  bool
	verboseFlag bool
	debugFlag   bool
	logFileFlag string

	cfg    *config.Config
	log    *logging.Logger
	sqlAdp *sqlstore.Adapter
)

var rootCmd = &cobra.Command{
	Use:           "leech",
	Short:         "Track and replicate changes to tabular data sources",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		cfg = loaded

		level := logging.LevelInform
		switch {
		case debugFlag:
			level = logging.LevelDebug
		case verboseFlag:
			level = logging.LevelVerbose
		}

		if workDirFlag != "" {
			cfg.WorkDir = workDirFlag
		}
		if logFileFlag != "" {
			cfg.LogFile = logFileFlag
		}
		log = logging.New(level, cfg.LogFile)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDirFlag, "workdir", "", "chain working directory (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&informFlag, "inform", false, "inform logging (the default level)")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "rotate logs into this file in addition to stderr (overrides config)")
	rootCmd.SetVersionTemplate(fmt.Sprintf("leech version %s (%s)\n", Version, Build))
}

func openStore() (*chainstore.Store, error) {
	return chainstore.Open(cfg.WorkDir)
}

func acquireLock() (*lockfile.Lock, error) {
	return lockfile.TryAcquire(cfg.WorkDir)
}

// buildAdapter resolves the adapter.Adapter for a single configured
// table, instantiating (and lazily sharing) the sqlite handle
// when a table is bound to the sqlstore adapter.
func buildAdapter(t config.TableConfig) (adapter.Adapter, error) {
	primary := len(t.PrimaryFields)
	switch t.AdapterName {
	case "", "csvfile":
		return csvfile.New(primary, false), nil
	case "sqlstore":
		if sqlAdp == nil {
			a, err := sqlstore.Open(cfg.SQLitePath, primary)
			if err != nil {
				return nil, err
			}
			sqlAdp = a
		}
		return sqlAdp, nil
	default:
		return nil, fmt.Errorf("root: unknown adapter %q for table %q", t.AdapterName, t.ID)
	}
}

func schemaOf(t config.TableConfig) tablestate.Schema {
	return tablestate.Schema{ID: t.ID, Primary: t.PrimaryFields, Subsidiary: t.SubsidiaryFields}
}

func buildCommitTables() ([]commitpipeline.Table, error) {
	tables := make([]commitpipeline.Table, 0, len(cfg.Tables))
	for _, t := range cfg.Tables {
		a, err := buildAdapter(t)
		if err != nil {
			return nil, err
		}
		if sa, ok := a.(*sqlstore.Adapter); ok {
			// The sqlite handle is shared across tables; EnsureTable takes the
			// primary-key width from Primary, so set it for this table.
			sa.Primary = len(t.PrimaryFields)
			cols := append(append([]string{}, t.PrimaryFields...), t.SubsidiaryFields...)
			if err := sa.EnsureTable(context.Background(), t.ID, cols); err != nil {
				return nil, err
			}
		}
		tables = append(tables, commitpipeline.Table{Schema: schemaOf(t), Adapter: a, ReadLocator: t.ReadLocator})
	}
	return tables, nil
}

func buildApplyTables() (map[string]apply.Table, error) {
	tables := make(map[string]apply.Table, len(cfg.Tables))
	for _, t := range cfg.Tables {
		a, err := buildAdapter(t)
		if err != nil {
			return nil, err
		}
		tables[t.ID] = apply.Table{Schema: schemaOf(t), Adapter: a, Locator: t.WriteLocator}
	}
	return tables, nil
}

func buildRebaseTables() ([]diffgen.RebaseTable, error) {
	tables := make([]diffgen.RebaseTable, 0, len(cfg.Tables))
	for _, t := range cfg.Tables {
		a, err := buildAdapter(t)
		if err != nil {
			return nil, err
		}
		tables = append(tables, diffgen.RebaseTable{Schema: schemaOf(t), Adapter: a, Locator: t.ReadLocator})
	}
	return tables, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
