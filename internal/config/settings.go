package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fyne.io/fyne/v2"
)

// Viewer selects how the finished thumbnail is displayed
type Viewer string

const (
	ViewerSystem Viewer = "system"
	ViewerWindow Viewer = "window"
)

// KeySettings holds every setting as one JSON document. Fyne debounces
// preference saves, so the whole configuration goes out in a single write.
const KeySettings = "settings"

// Default values
const (
	DefaultDownloadDir    = "downloads"
	DefaultThumbnailPath  = "thumbnail.jpg"
	DefaultFFmpegPath     = "ffmpeg"
	DefaultOpenAfter      = true
	DefaultViewer         = ViewerSystem
	DefaultThumbnailWidth = 0
	DefaultHTTPTimeout    = 0 * time.Second

	MaxThumbnailWidth = 7680
)

// Options is the effective configuration of one run
type Options struct {
	DownloadDir    string
	ThumbnailPath  string
	FFmpegPath     string
	OpenAfter      bool
	Viewer         Viewer
	ThumbnailWidth int
	HTTPTimeout    time.Duration
}

// DefaultOptions returns the configuration used when nothing is stored
func DefaultOptions() Options {
	return Options{
		DownloadDir:    DefaultDownloadDir,
		ThumbnailPath:  DefaultThumbnailPath,
		FFmpegPath:     DefaultFFmpegPath,
		OpenAfter:      DefaultOpenAfter,
		Viewer:         DefaultViewer,
		ThumbnailWidth: DefaultThumbnailWidth,
		HTTPTimeout:    DefaultHTTPTimeout,
	}
}

// storedOptions is the on-disk form of Options
type storedOptions struct {
	DownloadDir    string `json:"download_directory"`
	ThumbnailPath  string `json:"thumbnail_path"`
	FFmpegPath     string `json:"ffmpeg_path"`
	OpenAfter      bool   `json:"open_after_processing"`
	Viewer         string `json:"viewer"`
	ThumbnailWidth int    `json:"thumbnail_width"`
	HTTPTimeoutSec int    `json:"http_timeout_seconds"`
}

// ParseViewer validates a viewer name
func ParseViewer(value string) (Viewer, error) {
	switch v := Viewer(strings.ToLower(strings.TrimSpace(value))); v {
	case ViewerSystem, ViewerWindow:
		return v, nil
	case "":
		return DefaultViewer, nil
	default:
		return "", fmt.Errorf("unknown viewer %q (want %s or %s)", value, ViewerSystem, ViewerWindow)
	}
}

// Settings manages application configuration
type Settings struct {
	prefs fyne.Preferences
}

// NewSettings creates settings backed by the app's preferences
func NewSettings(app fyne.App) *Settings {
	return newSettings(app.Preferences())
}

func newSettings(prefs fyne.Preferences) *Settings {
	return &Settings{prefs: prefs}
}

// Options returns the stored configuration. Missing or junk values fall
// back to their defaults.
func (s *Settings) Options() Options {
	def := DefaultOptions()
	stored := storedOptions{
		DownloadDir:    def.DownloadDir,
		ThumbnailPath:  def.ThumbnailPath,
		FFmpegPath:     def.FFmpegPath,
		OpenAfter:      def.OpenAfter,
		Viewer:         string(def.Viewer),
		ThumbnailWidth: def.ThumbnailWidth,
		HTTPTimeoutSec: int(def.HTTPTimeout / time.Second),
	}
	if raw := s.prefs.String(KeySettings); raw != "" {
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			return def
		}
	}

	viewer, err := ParseViewer(stored.Viewer)
	if err != nil {
		viewer = DefaultViewer
	}
	opts := Options{
		DownloadDir:    stored.DownloadDir,
		ThumbnailPath:  stored.ThumbnailPath,
		FFmpegPath:     stored.FFmpegPath,
		OpenAfter:      stored.OpenAfter,
		Viewer:         viewer,
		ThumbnailWidth: stored.ThumbnailWidth,
		HTTPTimeout:    time.Duration(stored.HTTPTimeoutSec) * time.Second,
	}
	return normalize(opts)
}

// Save persists opts in a single preference write
func (s *Settings) Save(opts Options) error {
	opts = normalize(opts)
	data, err := json.Marshal(storedOptions{
		DownloadDir:    opts.DownloadDir,
		ThumbnailPath:  opts.ThumbnailPath,
		FFmpegPath:     opts.FFmpegPath,
		OpenAfter:      opts.OpenAfter,
		Viewer:         string(opts.Viewer),
		ThumbnailWidth: opts.ThumbnailWidth,
		HTTPTimeoutSec: int(opts.HTTPTimeout / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	s.prefs.SetString(KeySettings, string(data))
	return nil
}

// normalize applies defaults to empty values and clamps ranges
func normalize(opts Options) Options {
	if strings.TrimSpace(opts.DownloadDir) == "" {
		opts.DownloadDir = DefaultDownloadDir
	}
	if strings.TrimSpace(opts.ThumbnailPath) == "" {
		opts.ThumbnailPath = DefaultThumbnailPath
	}
	if strings.TrimSpace(opts.FFmpegPath) == "" {
		opts.FFmpegPath = DefaultFFmpegPath
	}
	if opts.Viewer == "" {
		opts.Viewer = DefaultViewer
	}
	if opts.ThumbnailWidth < 0 {
		opts.ThumbnailWidth = 0
	}
	if opts.ThumbnailWidth > MaxThumbnailWidth {
		opts.ThumbnailWidth = MaxThumbnailWidth
	}
	if opts.HTTPTimeout < 0 {
		opts.HTTPTimeout = 0
	}
	// stored in whole seconds
	opts.HTTPTimeout = opts.HTTPTimeout.Truncate(time.Second)
	return opts
}
