package config

import "github.com/BurntSushi/toml"

// App holds the tunables read once at startup: worker count, the
// object-store bucket and URL, the launcher service URL, and per-file
// retry/backoff values. FileRetries and FileRetryBackoffMS are decoded but
// not read by the download and verify engines, which use their own fixed
// retry count (3) and backoff (1s × attempt). App has no timeout settings.
type App struct {
	Workers            int    `toml:"workers"`
	ObjectStoreBucket  string `toml:"object_store_bucket"`
	ObjectStoreURL     string `toml:"object_store_url"`
	LauncherServiceURL string `toml:"launcher_service_url"`
	FileRetries        int    `toml:"file_retries"`
	FileRetryBackoffMS int    `toml:"file_retry_backoff_ms"`
}

// DefaultApp returns the engines' built-in defaults, used when no
// splash.toml is present.
func DefaultApp() App {
	return App{
		Workers:            10,
		ObjectStoreBucket:  "Builds",
		ObjectStoreURL:     "https://download.epicgames.com",
		LauncherServiceURL: "https://launcher-public-service-prod06.ol.epicgames.com",
		FileRetries:        3,
		FileRetryBackoffMS: 1000,
	}
}

// LoadApp reads path as TOML, falling back to DefaultApp for any field
// the file doesn't set (toml.Decode leaves zero-value fields untouched,
// so callers should start from DefaultApp and decode on top of it).
func LoadApp(path string) (App, error) {
	app := DefaultApp()
	if _, err := toml.DecodeFile(path, &app); err != nil {
		return App{}, err
	}
	return app, nil
}
