package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "chime"

// DefaultCatalogURL points at the public demo catalog used when no
// catalog is configured.
const DefaultCatalogURL = "https://storage.googleapis.com/uamp/catalog.json"

type Config struct {
	CatalogURL string `koanf:"catalog_url"`
	CachePath  string `koanf:"cache_path"` // sqlite catalog cache, empty = XDG data dir
	LogLevel   string `koanf:"log_level"`  // "debug", "info", "warn", "error"

	Player       PlayerConfig       `koanf:"player"`
	Notification NotificationConfig `koanf:"notification"`
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	RepeatMode string `koanf:"repeat_mode"` // "off", "one", "all" (default: "all")
}

// NotificationConfig holds media notification settings.
type NotificationConfig struct {
	Enabled           *bool `koanf:"enabled"`            // default: true
	NavigationActions *bool `koanf:"navigation_actions"` // previous/next buttons (default: true)
	RewindActions     *bool `koanf:"rewind_actions"`     // rewind/fast-forward buttons (default: false)
	StopAction        *bool `koanf:"stop_action"`        // stop button (default: false)
	Artwork           *bool `koanf:"artwork"`            // fetch item artwork (default: true)
}

func Load() (*Config, error) {
	return load(getConfigPaths())
}

func load(configPaths []string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		CatalogURL: DefaultCatalogURL,
		LogLevel:   "info",
		Player:     PlayerConfig{RepeatMode: "all"},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		cfg.CachePath = expandPath(cfg.CachePath)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/chime/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// CatalogCachePath resolves the sqlite cache location, creating parent
// directories under the XDG data dir when unset.
func (c *Config) CatalogCachePath() (string, error) {
	if c.CachePath != "" {
		return c.CachePath, nil
	}
	return xdg.DataFile(filepath.Join(appName, "catalog.db"))
}

// NotificationsEnabled returns the notification toggle, defaulting on.
func (c *Config) NotificationsEnabled() bool {
	return boolOr(c.Notification.Enabled, true)
}

// NavigationActions returns whether previous/next buttons are shown.
func (c *Config) NavigationActions() bool {
	return boolOr(c.Notification.NavigationActions, true)
}

// RewindActions returns whether rewind/fast-forward buttons are shown.
func (c *Config) RewindActions() bool {
	return boolOr(c.Notification.RewindActions, false)
}

// StopAction returns whether a stop button is shown.
func (c *Config) StopAction() bool {
	return boolOr(c.Notification.StopAction, false)
}

// ArtworkEnabled returns whether artwork is fetched, defaulting on.
func (c *Config) ArtworkEnabled() bool {
	return boolOr(c.Notification.Artwork, true)
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
