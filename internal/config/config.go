package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	StateDir      string `toml:"state_dir"`
	LogDir        string `toml:"log_dir"`
	AssetCacheDir string `toml:"asset_cache_dir"`
	SocketPath    string `toml:"socket_path"`
}

// Relay contains configuration for the upstream event relay connection.
type Relay struct {
	Enabled          bool   `toml:"enabled"`
	URL              string `toml:"url"`
	ServiceID        string `toml:"service_id"`
	ReconnectSeconds int    `toml:"reconnect_seconds"`
}

// AssetStore contains configuration for the asset download client.
type AssetStore struct {
	URL            string `toml:"url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Mapping contains configuration for the content-mapping engine.
type Mapping struct {
	TickIntervalMillis int `toml:"tick_interval_millis"`
	DefaultWidth       int `toml:"default_width"`
	DefaultHeight      int `toml:"default_height"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for beamer.
//
// Configuration sections by subsystem:
//   - Paths: state/log/asset-cache directories and the IPC socket
//   - Relay: upstream event relay websocket connection
//   - AssetStore: asset download endpoint and timeouts
//   - Mapping: engine tick interval and default capture resolution
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Relay      Relay      `toml:"relay"`
	AssetStore AssetStore `toml:"asset_store"`
	Mapping    Mapping    `toml:"mapping"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/beamer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/beamer/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("beamer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir, c.Paths.AssetCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the path of the persisted content-mapping cache file.
func (c *Config) CachePath() string {
	return filepath.Join(c.Paths.StateDir, "content-mapping.json")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
