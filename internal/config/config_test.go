package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadReadsProjectConfig(t *testing.T) {
	dir := t.TempDir()
	leechDir := filepath.Join(dir, ".leech")
	require.NoError(t, os.MkdirAll(leechDir, 0o755))
	yaml := `
workdir: .leech
uid_field: host
uid_value: alpha
tables:
  - id: people
    primary_fields: [id]
    subsidiary_fields: [name]
    read_locator: people.csv
    write_locator: people.csv
    adapter_name: csvfile
`
	require.NoError(t, os.WriteFile(filepath.Join(leechDir, "config.yaml"), []byte(yaml), 0o644))

	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(cwd)
	require.NoError(t, os.Chdir(sub))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "host", cfg.UIDField)
	require.Equal(t, "alpha", cfg.UIDValue)
	require.Len(t, cfg.Tables, 1)
	require.Equal(t, "people", cfg.Tables[0].ID)
}

func TestValidateRejectsOverlappingFields(t *testing.T) {
	cfg := &Config{Tables: []TableConfig{
		{ID: "t", PrimaryFields: []string{"id"}, SubsidiaryFields: []string{"id"}},
	}}
	require.Error(t, validate(cfg), "expected overlapping primary/subsidiary fields to be rejected")
}

func TestValidateRejectsDuplicateTableID(t *testing.T) {
	cfg := &Config{Tables: []TableConfig{
		{ID: "t", PrimaryFields: []string{"id"}},
		{ID: "t", PrimaryFields: []string{"id"}},
	}}
	require.Error(t, validate(cfg), "expected duplicate table id to be rejected")
}
