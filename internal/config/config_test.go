package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	testChdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, "nam_volume_knob", cfg.Output.ArchiveLabel)
	assert.False(t, cfg.Output.Individual)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)

	path := filepath.Join(dir, "namknob.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
output:
  dir: exports
  archive_label: rig
history:
  enabled: true
`), 0644))
	t.Setenv("NAMKNOB_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EnvProd, cfg.Env)
	assert.Equal(t, "exports", cfg.Output.Dir)
	assert.Equal(t, "rig", cfg.Output.ArchiveLabel)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvFile), []byte("NAMKNOB_ARCHIVE_LABEL=from_dotenv\n"), 0644))
	t.Setenv("NAMKNOB_ARCHIVE_LABEL", "")
	os.Unsetenv("NAMKNOB_ARCHIVE_LABEL")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from_dotenv", cfg.Output.ArchiveLabel)
}

func TestLoadRejectsBadValues(t *testing.T) {
	testChdir(t, t.TempDir())

	t.Setenv("NAMKNOB_ENV", "staging")
	_, err := Load("")
	assert.ErrorContains(t, err, "env must be")

	t.Setenv("NAMKNOB_ENV", EnvLocal)
	t.Setenv("NAMKNOB_LOG_LEVEL", "loud")
	_, err = Load("")
	assert.ErrorContains(t, err, "log level")
}

func TestSaveThenLoad(t *testing.T) {
	dir := t.TempDir()
	testChdir(t, dir)

	path := filepath.Join(dir, "conf", "namknob.yaml")
	want := &Config{
		Env:     EnvProd,
		Output:  Output{Dir: "out", ArchiveLabel: "pack", Individual: true},
		History: History{Enabled: true, Path: "h.db"},
		Log:     Log{Level: "warn"},
	}
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
