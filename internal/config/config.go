// Package config loads an instance's table/adapter/peer configuration,
// grounded on the teacher's viper-based loader (internal/config in the
// teacher repo): project config directory, then user config dir, then home
// directory, with LEECH_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// TableConfig is one configured table's binding, matching spec.md §7's
// configured-table tuple.
type TableConfig struct {
	ID               string   `mapstructure:"id"`
	PrimaryFields    []string `mapstructure:"primary_fields"`
	SubsidiaryFields []string `mapstructure:"subsidiary_fields"`
	ReadLocator      string   `mapstructure:"read_locator"`
	WriteLocator     string   `mapstructure:"write_locator"`
	AdapterName      string   `mapstructure:"adapter_name"`
}

// PeerConfig names a remote host this instance exchanges patches with.
type PeerConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// Config is a fully resolved instance configuration.
type Config struct {
	WorkDir     string        `mapstructure:"workdir"`
	UIDField    string        `mapstructure:"uid_field"`
	UIDValue    string        `mapstructure:"uid_value"`
	LockTimeout string        `mapstructure:"lock_timeout"`
	SQLitePath  string        `mapstructure:"sqlite_path"`
	LogFile     string        `mapstructure:"log_file"`
	Tables      []TableConfig `mapstructure:"tables"`
	Peers       []PeerConfig  `mapstructure:"peers"`
}

// Load resolves leech's configuration file by walking up from the current
// working directory looking for .leech/config.yaml, then falling back to
// the user config directory and finally the home directory, exactly as the
// teacher's loader does for .beads/config.yaml. Environment variables
// prefixed LEECH_ take precedence over file values.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	configFileSet := false

	if cwd, err := os.Getwd(); err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			candidate := filepath.Join(dir, ".leech", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
				break
			}
		}
	}

	if !configFileSet {
		if configDir, err := os.UserConfigDir(); err == nil {
			candidate := filepath.Join(configDir, "leech", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	if !configFileSet {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".leech", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				v.SetConfigFile(candidate)
				configFileSet = true
			}
		}
	}

	v.SetEnvPrefix("LEECH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("workdir", ".leech")
	v.SetDefault("uid_field", "")
	v.SetDefault("uid_value", "")
	v.SetDefault("lock_timeout", "30s")
	v.SetDefault("sqlite_path", ".leech/leech.db")
	v.SetDefault("log_file", "")
	v.SetDefault("tables", []map[string]any{})
	v.SetDefault("peers", []map[string]any{})

	if configFileSet {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding configuration: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	seen := make(map[string]struct{}, len(cfg.Tables))
	for _, t := range cfg.Tables {
		if t.ID == "" {
			return fmt.Errorf("config: table entry missing %q", "id")
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("config: duplicate table id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
		if len(t.PrimaryFields) == 0 {
			return fmt.Errorf("config: table %q must declare at least one primary field", t.ID)
		}
		primary := make(map[string]struct{}, len(t.PrimaryFields))
		for _, f := range t.PrimaryFields {
			primary[f] = struct{}{}
		}
		for _, f := range t.SubsidiaryFields {
			if _, overlap := primary[f]; overlap {
				return fmt.Errorf("config: table %q field %q is both primary and subsidiary", t.ID, f)
			}
		}
	}
	return nil
}
