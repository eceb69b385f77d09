// Package config loads finder configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full finder configuration. Zero/missing fields are
// filled from Default.
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Recents RecentsConfig `toml:"recents"`
	Marks   MarksConfig   `toml:"marks"`
	Watch   WatchConfig   `toml:"watch"`
	Log     LogConfig     `toml:"log"`
}

// SearchConfig tunes the search coordinator and scorer.
type SearchConfig struct {
	// MaxResults caps each published result set.
	MaxResults int `toml:"max_results"`

	// Workers is the scoring pool size; 0 means one per CPU.
	Workers int `toml:"workers"`

	// CacheSize bounds the query result cache; 0 disables it.
	CacheSize int `toml:"cache_size"`

	// RecencyBoostWeight blends recently-opened files into ranked
	// results: a candidate at recents position p gains (weight - p)
	// score points. 0 keeps recents out of non-empty query ranking
	// entirely.
	RecencyBoostWeight int `toml:"recency_boost_weight"`
}

// RecentsConfig tunes the recently-opened list.
type RecentsConfig struct {
	// Max bounds the recents list length.
	Max int `toml:"max"`
}

// MarksConfig tunes the numbered mark slots.
type MarksConfig struct {
	// MaxSlots is the number of mark slots.
	MaxSlots int `toml:"max_slots"`

	// Persist keeps marks across sessions via the state file.
	Persist bool `toml:"persist"`
}

// WatchConfig tunes the file-system watcher feeding the corpus.
type WatchConfig struct {
	// DebounceMS coalesces rapid changes to the same path.
	DebounceMS int `toml:"debounce_ms"`

	// Ignore lists directory/file patterns excluded from the corpus.
	Ignore []string `toml:"ignore"`

	// IgnoreHidden excludes dot-files and dot-directories.
	IgnoreHidden bool `toml:"ignore_hidden"`
}

// LogConfig tunes logging.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Search: SearchConfig{
			MaxResults: 128,
			Workers:    0,
			CacheSize:  100,
		},
		Recents: RecentsConfig{Max: 50},
		Marks:   MarksConfig{MaxSlots: 9, Persist: true},
		Watch: WatchConfig{
			DebounceMS:   100,
			Ignore:       []string{".git", "node_modules", "target", "vendor"},
			IgnoreHidden: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Debounce returns the watch debounce as a duration.
func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Load reads configuration from path, layered over Default. A missing
// file is not an error: the defaults apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize clamps nonsense values back to their defaults.
func (c *Config) normalize() {
	def := Default()
	if c.Search.MaxResults < 0 {
		c.Search.MaxResults = def.Search.MaxResults
	}
	if c.Search.Workers < 0 {
		c.Search.Workers = 0
	}
	if c.Search.CacheSize < 0 {
		c.Search.CacheSize = def.Search.CacheSize
	}
	if c.Search.RecencyBoostWeight < 0 {
		c.Search.RecencyBoostWeight = 0
	}
	if c.Recents.Max <= 0 {
		c.Recents.Max = def.Recents.Max
	}
	if c.Marks.MaxSlots <= 0 {
		c.Marks.MaxSlots = def.Marks.MaxSlots
	}
	if c.Watch.DebounceMS < 0 {
		c.Watch.DebounceMS = def.Watch.DebounceMS
	}
}
