package config

import (
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
)

const (
	defaultMaxConcurrent = 5
	defaultMaxRetries    = 3
	defaultRetryDelay    = time.Second
	defaultDownloadDir   = "downloads"
	defaultPackName      = "modfetch-pack"
	defaultPackVersion   = "1.0.0"
)

// Default returns the manifest defaults applied for missing keys.
func Default() *Config {
	return &Config{
		MaxConcurrent: defaultMaxConcurrent,
		MaxRetries:    defaultMaxRetries,
		RetryDelay:    defaultRetryDelay,
		Output: Output{
			DownloadDir: defaultDownloadDir,
		},
		Metadata: Metadata{
			Name:    defaultPackName,
			Version: defaultPackVersion,
		},
	}
}

// HistoryPath is the run journal location under the user's data directory.
func HistoryPath() string {
	return filepath.Join(xdg.DataHome, "modfetch", "history.db")
}

// LogPath is the debug log location under the user's state directory.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "modfetch", "modfetch.log")
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
