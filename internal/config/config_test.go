package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/stitch/internal/stitch"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(stitch.StatePath(root), 0o755))
	require.NoError(t, os.WriteFile(Path(root), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.True(t, cfg.JournalEnabled)
	assert.Equal(t, filepath.Join(root, ".stitch", "journal.db"), cfg.JournalPath)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 10, cfg.LogMaxSizeMB)
	assert.Equal(t, 3, cfg.LogMaxBackups)
	assert.Equal(t, 8, cfg.StoreWorkers)
	assert.Equal(t, stitch.StatusClosed, cfg.DefaultStatus)
	assert.Empty(t, cfg.File)
}

func TestLoad_FromFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
journal:
  enabled: false
  path: history/finishes.db
log:
  file: /var/log/stitch.log
  max-backups: 0
store:
  workers: 2
finish:
  default-status: abandoned
`)

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.False(t, cfg.JournalEnabled)
	assert.Equal(t, filepath.Join(root, "history", "finishes.db"), cfg.JournalPath)
	assert.Equal(t, "/var/log/stitch.log", cfg.LogFile)
	assert.Equal(t, 0, cfg.LogMaxBackups)
	assert.Equal(t, 2, cfg.StoreWorkers)
	assert.Equal(t, stitch.StatusAbandoned, cfg.DefaultStatus)
	assert.Equal(t, Path(root), cfg.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "finish:\n  default-status: abandoned\n")
	t.Setenv("STITCH_FINISH_DEFAULT_STATUS", "superseded")
	t.Setenv("STITCH_STORE_WORKERS", "3")

	cfg, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, stitch.StatusSuperseded, cfg.DefaultStatus)
	assert.Equal(t, 3, cfg.StoreWorkers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"open default status", "finish:\n  default-status: open\n", "finish.default-status"},
		{"unknown status", "finish:\n  default-status: done\n", "finish.default-status"},
		{"zero workers", "store:\n  workers: 0\n", "store.workers"},
		{"zero log size", "log:\n  max-size-mb: 0\n", "log.max-size-mb"},
		{"negative backups", "log:\n  max-backups: -1\n", "log.max-backups"},
		{"malformed yaml", "finish: [unclosed\n", "reading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeConfig(t, root, tt.body)

			_, err := Load(root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(stitch.StatePath(root), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok := FindRoot(nested)
	assert.True(t, ok)
	assert.Equal(t, root, got)

	elsewhere := t.TempDir()
	got, ok = FindRoot(elsewhere)
	assert.False(t, ok)
	assert.Equal(t, elsewhere, got)
}

func TestWriteDefault(t *testing.T) {
	root := t.TempDir()

	wrote, err := WriteDefault(root)
	require.NoError(t, err)
	assert.True(t, wrote)

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, stitch.StatusClosed, cfg.DefaultStatus)
	assert.Equal(t, Path(root), cfg.File)

	require.NoError(t, os.WriteFile(Path(root), []byte("store:\n  workers: 4\n"), 0o644))
	wrote, err = WriteDefault(root)
	require.NoError(t, err)
	assert.False(t, wrote, "an existing config must not be overwritten")
}
