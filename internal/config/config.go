package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/teamcutter/unarc/internal/domain"
	"github.com/teamcutter/unarc/internal/format"
)

const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

type Config struct {
	UnarcDir      string `toml:"unarc_dir"`
	StripRootDir  bool   `toml:"strip_root_dir"`
	Format        string `toml:"format"`
	Progress      bool   `toml:"progress"`
	BufferSize    int    `toml:"buffer_size"`
	LogLevel      string `toml:"log_level"`
	MaxParallel   int    `toml:"max_parallel"`
	JournalDriver string `toml:"journal_driver"`
	JournalFile   string `toml:"journal_file"`
}

// BaseDir is ~/.unarc, or a relative .unarc when there is no home.
func BaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".unarc"
	}
	return filepath.Join(home, ".unarc")
}

func Path() string {
	return filepath.Join(BaseDir(), "config.toml")
}

func DefaultConfig() *Config {
	base := BaseDir()

	return &Config{
		UnarcDir:      base,
		StripRootDir:  true,
		Progress:      true,
		BufferSize:    32 * 1024,
		LogLevel:      "warn",
		MaxParallel:   4,
		JournalDriver: DriverSQLite,
		JournalFile:   "journal.db",
	}
}

func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveFile(Path(), cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Config) Validate() error {
	if _, err := c.ArchiveFormat(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative: %d", c.BufferSize)
	}
	if c.MaxParallel < 0 {
		return fmt.Errorf("max_parallel must not be negative: %d", c.MaxParallel)
	}
	switch c.JournalDriver {
	case DriverSQLite, DriverJSON, "":
	default:
		return fmt.Errorf("unknown journal_driver %q", c.JournalDriver)
	}
	return nil
}

// ArchiveFormat returns the configured override, or FormatUnknown when
// formats are detected per archive.
func (c *Config) ArchiveFormat() (domain.Format, error) {
	if c.Format == "" || c.Format == "auto" {
		return domain.FormatUnknown, nil
	}
	return format.Parse(c.Format)
}

func (c *Config) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.WarnLevel, nil
	}
	return logrus.ParseLevel(c.LogLevel)
}

// JournalPath resolves journal_file against unarc_dir. The json driver
// swaps a .db extension for .json.
func (c *Config) JournalPath() string {
	file := c.JournalFile
	if file == "" {
		file = "journal.db"
	}
	if c.JournalDriver == DriverJSON && filepath.Ext(file) == ".db" {
		file = strings.TrimSuffix(file, ".db") + ".json"
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.UnarcDir, file)
}

func (c *Config) Parallelism() int {
	if c.MaxParallel <= 0 {
		return 1
	}
	return c.MaxParallel
}
