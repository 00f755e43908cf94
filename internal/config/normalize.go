package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRelay()
	c.normalizeAssetStore()
	c.normalizeMapping()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetCacheDir) == "" {
		c.Paths.AssetCacheDir = defaultAssetCacheDir
	}
	if c.Paths.AssetCacheDir, err = expandPath(c.Paths.AssetCacheDir); err != nil {
		return fmt.Errorf("paths.asset_cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRelay() {
	c.Relay.URL = strings.TrimSpace(c.Relay.URL)
	if c.Relay.URL == "" {
		if value, ok := os.LookupEnv("BEAMER_RELAY_URL"); ok {
			c.Relay.URL = strings.TrimSpace(value)
		}
	}
	if c.Relay.URL == "" {
		c.Relay.URL = defaultRelayURL
	}
	c.Relay.ServiceID = strings.TrimSpace(c.Relay.ServiceID)
	if c.Relay.ServiceID == "" {
		c.Relay.ServiceID = defaultServiceID
	}
	if c.Relay.ReconnectSeconds <= 0 {
		c.Relay.ReconnectSeconds = defaultReconnectSeconds
	}
}

func (c *Config) normalizeAssetStore() {
	c.AssetStore.URL = strings.TrimSpace(c.AssetStore.URL)
	if c.AssetStore.URL == "" {
		if value, ok := os.LookupEnv("BEAMER_ASSET_STORE_URL"); ok {
			c.AssetStore.URL = strings.TrimSpace(value)
		}
	}
	if c.AssetStore.URL == "" {
		c.AssetStore.URL = defaultAssetStoreURL
	}
	c.AssetStore.URL = strings.TrimRight(c.AssetStore.URL, "/")
	if c.AssetStore.RequestTimeout <= 0 {
		c.AssetStore.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeMapping() {
	if c.Mapping.TickIntervalMillis <= 0 {
		c.Mapping.TickIntervalMillis = defaultTickIntervalMillis
	}
	if c.Mapping.DefaultWidth <= 0 {
		c.Mapping.DefaultWidth = defaultCaptureWidth
	}
	if c.Mapping.DefaultHeight <= 0 {
		c.Mapping.DefaultHeight = defaultCaptureHeight
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
