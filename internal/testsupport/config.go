// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"beamer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// The relay and asset store are disabled so tests never reach the network;
// enable them per test with the options below.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AssetCacheDir = filepath.Join(base, "assets")
	cfg.Paths.SocketPath = filepath.Join(base, "beamerd.sock")
	cfg.Relay.Enabled = false
	cfg.AssetStore.URL = ""
	cfg.Mapping.TickIntervalMillis = 10

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}
	return &cfg
}

// WithRelay points the test config at a relay endpoint.
func WithRelay(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Relay.Enabled = true
		cfg.Relay.URL = url
		cfg.Relay.ReconnectSeconds = 1
	}
}

// WithAssetStore points the test config at an asset store endpoint.
func WithAssetStore(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.AssetStore.URL = url
	}
}

// WithTickInterval overrides the engine tick interval in milliseconds.
func WithTickInterval(millis int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Mapping.TickIntervalMillis = millis
	}
}
