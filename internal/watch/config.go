package watch

import "time"

// Config contains configuration options that control how the
// watch service detects new video files.
type Config struct {
	// The path to the directory the service should monitor for
	// new files. Sub-directories are watched too.
	Path string `yaml:"path" env:"VIDINFO_WATCH_PATH"`

	// Only files with one of these extensions (case-insensitive)
	// are probed.
	Extensions []string `yaml:"extensions" env:"VIDINFO_WATCH_EXTENSIONS" env-separator:"," env-default:".mp4,.mkv,.mov,.avi,.webm,.m4v"`

	// A file that is still being written emits many events. Each event
	// restarts a timer for the file, and the file is only probed once
	// this many milliseconds pass without a new event.
	SettleMillis int `yaml:"settle_ms" env:"VIDINFO_WATCH_SETTLE_MS" env-default:"1500" validate:"gte=0"`

	// Controls the number of files which can be probed concurrently.
	Workers int `yaml:"workers" env:"VIDINFO_WATCH_WORKERS" env-default:"2" validate:"gte=1"`

	// When set, files already inside the directory are probed
	// when the service starts.
	ScanExisting bool `yaml:"scan_existing" env:"VIDINFO_WATCH_SCAN_EXISTING" env-default:"false"`
}

func (config *Config) SettleDuration() time.Duration {
	return time.Duration(config.SettleMillis) * time.Millisecond
}
