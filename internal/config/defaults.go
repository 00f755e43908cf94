package config

const (
	defaultStateDir      = "~/.local/share/beamer"
	defaultLogDir        = "~/.local/share/beamer/logs"
	defaultAssetCacheDir = "~/.cache/beamer/assets"
	defaultSocketPath    = "~/.local/share/beamer/beamerd.sock"

	defaultRelayURL         = "ws://localhost:5155/myko"
	defaultServiceID        = "beamer"
	defaultReconnectSeconds = 5

	defaultAssetStoreURL  = "http://localhost:5155/assets"
	defaultRequestTimeout = 30

	defaultTickIntervalMillis = 50
	defaultCaptureWidth       = 1920
	defaultCaptureHeight      = 1080

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with default values.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
			AssetCacheDir: defaultAssetCacheDir,
			SocketPath:    defaultSocketPath,
		},
		Relay: Relay{
			Enabled:          true,
			URL:              defaultRelayURL,
			ServiceID:        defaultServiceID,
			ReconnectSeconds: defaultReconnectSeconds,
		},
		AssetStore: AssetStore{
			URL:            defaultAssetStoreURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Mapping: Mapping{
			TickIntervalMillis: defaultTickIntervalMillis,
			DefaultWidth:       defaultCaptureWidth,
			DefaultHeight:      defaultCaptureHeight,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
