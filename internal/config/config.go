// Package config handles the irc.toml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "irc.toml"

// Config holds defaults for the irc command. Command-line flags override
// every value.
type Config struct {
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
	Decode DecodeConfig `toml:"decode"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-"`
}

// CacheConfig configures the archive cache.
type CacheConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures diagnostics on stderr.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DecodeConfig configures decode sessions.
type DecodeConfig struct {
	// Trace logs every decoded scope and instruction at debug level.
	Trace bool `toml:"trace"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{Path: ".irc/cache.db"},
		Log:   LogConfig{Level: "warn", Format: "text"},
	}
}

// Load parses the TOML file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse error in %s: unknown key %q", path, undecoded[0].String())
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	c.Path = path

	// A relative cache path is relative to the config file.
	if c.Cache.Path != "" && !filepath.IsAbs(c.Cache.Path) {
		c.Cache.Path = filepath.Join(filepath.Dir(path), c.Cache.Path)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for FileName and loads the
// first one found. It returns Default() when there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q: want text or json", c.Log.Format)
	}
	if c.Cache.Path == "" {
		return errors.New("cache.path must not be empty")
	}
	return nil
}
