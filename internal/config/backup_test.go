package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupFile_MissingSourceIsNoop(t *testing.T) {
	path, err := BackupFile(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupFile_CopiesContent(t *testing.T) {
	src := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(src, []byte("version: 1\n"), 0o644))

	backup, err := BackupFile(src)
	require.NoError(t, err)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestListBackups_PrunesToMax(t *testing.T) {
	// Given: more stale backups than MaxBackups
	dir := t.TempDir()
	src := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	for _, ts := range []string{"20200101-000000.000", "20200102-000000.000", "20200103-000000.000", "20200104-000000.000"} {
		require.NoError(t, os.WriteFile(src+BackupSuffix+"."+ts, []byte("old"), 0o644))
	}

	// When: taking a fresh backup
	fresh, err := BackupFile(src)
	require.NoError(t, err)

	// Then: only the newest MaxBackups survive, fresh first
	backups, err := ListBackups(src)
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, fresh, backups[0])
	assert.NotContains(t, backups, src+BackupSuffix+".20200101-000000.000")
}
