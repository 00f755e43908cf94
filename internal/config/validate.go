package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateAssetStore(); err != nil {
		return err
	}
	if err := c.validateMapping(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRelay() error {
	if !c.Relay.Enabled {
		return nil
	}
	if c.Relay.URL == "" {
		return errors.New("relay.url must be set when relay.enabled is true")
	}
	if !strings.HasPrefix(c.Relay.URL, "ws://") && !strings.HasPrefix(c.Relay.URL, "wss://") {
		return fmt.Errorf("relay.url must be a ws:// or wss:// URL, got %q", c.Relay.URL)
	}
	if c.Relay.ServiceID == "" {
		return errors.New("relay.service_id must be set")
	}
	return nil
}

func (c *Config) validateAssetStore() error {
	if c.AssetStore.URL == "" {
		return errors.New("asset_store.url must be set")
	}
	if !strings.HasPrefix(c.AssetStore.URL, "http://") && !strings.HasPrefix(c.AssetStore.URL, "https://") {
		return fmt.Errorf("asset_store.url must be an http:// or https:// URL, got %q", c.AssetStore.URL)
	}
	return nil
}

func (c *Config) validateMapping() error {
	if c.Mapping.TickIntervalMillis < 1 {
		return errors.New("mapping.tick_interval_millis must be at least 1")
	}
	if c.Mapping.DefaultWidth < 1 || c.Mapping.DefaultHeight < 1 {
		return errors.New("mapping.default_width and mapping.default_height must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
