package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamcutter/unarc/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.StripRootDir)
	assert.True(t, cfg.Progress)
	assert.Equal(t, DriverSQLite, cfg.JournalDriver)
	assert.Equal(t, filepath.Join(cfg.UnarcDir, "journal.db"), cfg.JournalPath())
	require.NoError(t, cfg.Validate())

	f, err := cfg.ArchiveFormat()
	require.NoError(t, err)
	assert.Equal(t, domain.FormatUnknown, f)
}

func TestLoadFile_Missing(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.StripRootDir = false
	cfg.Format = "tgz"
	cfg.LogLevel = "debug"
	cfg.MaxParallel = 8
	cfg.JournalDriver = DriverJSON
	require.NoError(t, SaveFile(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	f, err := loaded.ArchiveFormat()
	require.NoError(t, err)
	assert.Equal(t, domain.FormatTarGz, f)

	level, err := loaded.Level()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, level)
	assert.Equal(t, 8, loaded.Parallelism())
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("strip_root_dir = false\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.StripRootDir)
	assert.True(t, cfg.Progress)
	assert.Equal(t, 32*1024, cfg.BufferSize)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax": "strip_root_dir = ",
		"format": `format = "rar"`,
		"level":  `log_level = "loud"`,
		"driver": `journal_driver = "postgres"`,
		"buffer": `buffer_size = -1`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(body+"\n"), 0644))

			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}
}

func TestParallelism(t *testing.T) {
	assert.Equal(t, 1, (&Config{}).Parallelism())
	assert.Equal(t, 3, (&Config{MaxParallel: 3}).Parallelism())
}

func TestJournalPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnarcDir = "/srv/unarc"
	assert.Equal(t, "/srv/unarc/journal.db", cfg.JournalPath())

	cfg.JournalDriver = DriverJSON
	assert.Equal(t, "/srv/unarc/journal.json", cfg.JournalPath())

	cfg.JournalFile = "state/history.json"
	assert.Equal(t, "/srv/unarc/state/history.json", cfg.JournalPath())

	cfg.JournalFile = "/var/lib/unarc/history.db"
	cfg.JournalDriver = DriverSQLite
	assert.Equal(t, "/var/lib/unarc/history.db", cfg.JournalPath())

	cfg.JournalFile = ""
	assert.Equal(t, "/srv/unarc/journal.db", cfg.JournalPath())
}
