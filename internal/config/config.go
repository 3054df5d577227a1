// Package config holds the process-wide IR graph settings.
//
// Settings come from an optional TOML file and are then overridden by
// environment variables:
//
//	IR_SHAPE_CACHE_SIZE  capacity of the shared shape cache (default 4096)
//	IR_DEBUG             capture source frames on node construction (default off)
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Environment variable names.
const (
	EnvShapeCacheSize = "IR_SHAPE_CACHE_SIZE"
	EnvDebug          = "IR_DEBUG"
)

// DefaultShapeCacheSize is the shape cache capacity used when nothing is configured.
const DefaultShapeCacheSize = 4096

// Config controls the IR graph core.
type Config struct {
	ShapeCacheSize int  `toml:"shape_cache_size"`
	Debug          bool `toml:"debug"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ShapeCacheSize: DefaultShapeCacheSize,
		Debug:          false,
	}
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() Config {
	cfg := Default()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg
}

// Load decodes a TOML file on top of the defaults, then applies environment
// overrides. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "decoding config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if cfg.ShapeCacheSize <= 0 {
		return Config{}, errors.Errorf("config %s: shape_cache_size must be positive, got %d", path, cfg.ShapeCacheSize)
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from variables returned by lookup. Invalid values
// are logged and ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvShapeCacheSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			slog.Warn("ignoring invalid shape cache size", "var", EnvShapeCacheSize, "value", v)
		} else {
			c.ShapeCacheSize = n
		}
	}
	if v, ok := lookup(EnvDebug); ok {
		b, err := parseBool(v)
		if err != nil {
			slog.Warn("ignoring invalid debug flag", "var", EnvDebug, "value", v)
		} else {
			c.Debug = b
		}
	}
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return false, errors.Errorf("invalid boolean %q", v)
}

var (
	globalOnce sync.Once
	globalMu   sync.Mutex
	global     *Config
)

// Global returns the process-wide settings. The environment is read on first
// use unless SetGlobal was called before.
func Global() Config {
	globalOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		if global == nil {
			cfg := FromEnv()
			global = &cfg
		}
	})
	globalMu.Lock()
	defer globalMu.Unlock()
	return *global
}

// SetGlobal replaces the process-wide settings. Components that already read
// them (the default shape cache, the frame-capture toggle) keep their values.
func SetGlobal(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = &cfg
}
