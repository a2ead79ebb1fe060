// Package config loads stitch settings from .stitch/config.yaml and
// STITCH_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/HendryAvila/stitch/internal/journal"
	"github.com/HendryAvila/stitch/internal/stitch"
)

// FileName is the config file inside the .stitch directory.
const FileName = "config.yaml"

// EnvPrefix is prepended to every environment override, e.g.
// STITCH_JOURNAL_ENABLED or STITCH_FINISH_DEFAULT_STATUS.
const EnvPrefix = "STITCH"

// Config holds the resolved settings for one project root.
type Config struct {
	Root string

	JournalEnabled bool
	JournalPath    string

	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	StoreWorkers  int
	DefaultStatus stitch.Status

	// File is the config file that was read, empty when none exists.
	File string
}

// FindRoot walks up from start looking for a directory containing .stitch.
// It returns start and false when no project is found; the caller decides
// whether that is an error.
func FindRoot(start string) (string, bool) {
	current := start
	for {
		if info, err := os.Stat(stitch.StatePath(current)); err == nil && info.IsDir() {
			return current, true
		}
		parent := filepath.Dir(current)
		if parent == current {
			return start, false
		}
		current = parent
	}
}

// Path returns the config file location for a project root.
func Path(root string) string {
	return filepath.Join(stitch.StatePath(root), FileName)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variables take precedence over the config file.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max-size-mb", 10)
	v.SetDefault("log.max-backups", 3)
	v.SetDefault("store.workers", 8)
	v.SetDefault("finish.default-status", string(stitch.StatusClosed))
	return v
}

// Load reads the settings for root. A missing config file is not an error;
// defaults and environment overrides still apply.
func Load(root string) (*Config, error) {
	v := newViper()

	file := Path(root)
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
	} else {
		file = ""
	}

	cfg := &Config{
		Root:           root,
		JournalEnabled: v.GetBool("journal.enabled"),
		JournalPath:    resolvePath(root, v.GetString("journal.path")),
		LogFile:        resolvePath(root, v.GetString("log.file")),
		LogMaxSizeMB:   v.GetInt("log.max-size-mb"),
		LogMaxBackups:  v.GetInt("log.max-backups"),
		StoreWorkers:   v.GetInt("store.workers"),
		DefaultStatus:  stitch.Status(strings.TrimSpace(v.GetString("finish.default-status"))),
		File:           file,
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = journal.DefaultPath(root)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot honor.
func (c *Config) Validate() error {
	if !c.DefaultStatus.IsTerminal() {
		return fmt.Errorf("finish.default-status must be closed, superseded, or abandoned, got %q", c.DefaultStatus)
	}
	if c.StoreWorkers < 1 {
		return fmt.Errorf("store.workers must be at least 1, got %d", c.StoreWorkers)
	}
	if c.LogMaxSizeMB < 1 {
		return fmt.Errorf("log.max-size-mb must be at least 1, got %d", c.LogMaxSizeMB)
	}
	if c.LogMaxBackups < 0 {
		return fmt.Errorf("log.max-backups cannot be negative, got %d", c.LogMaxBackups)
	}
	return nil
}

// resolvePath makes relative paths relative to the project root.
func resolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

const defaultFile = `# stitch configuration. Every key can be overridden with a STITCH_*
# environment variable, e.g. STITCH_FINISH_DEFAULT_STATUS=abandoned.

journal:
  enabled: true
  # path: .stitch/journal.db

log:
  # file: .stitch/stitch.log
  max-size-mb: 10
  max-backups: 3

store:
  workers: 8

finish:
  default-status: closed
`

// WriteDefault writes a commented default config file unless one exists.
// It reports whether a file was written.
func WriteDefault(root string) (bool, error) {
	file := Path(root)
	if _, err := os.Stat(file); err == nil {
		return false, nil
	}
	if err := stitch.WriteFileAtomic(file, []byte(defaultFile)); err != nil {
		return false, fmt.Errorf("writing %s: %w", file, err)
	}
	return true, nil
}
