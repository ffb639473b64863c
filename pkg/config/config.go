// Package config loads blurt settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file at [Path] (missing is fine)
//  3. .env.local and .env in the working directory
//  4. BLURT_* environment variables
//
// Example config.toml:
//
//	[storage]
//	mode = "hybrid"
//	data_dir = "/home/me/notes/blurt"
//
//	[cloud]
//	mongo_uri = "mongodb://localhost:27017"
//	user_id = "me@example.com"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[board]
//	default_duration_sec = 600
//	reduced_motion = true
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/blurtapp/blurt/pkg/cache"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/layout"
	"github.com/blurtapp/blurt/pkg/session"
)

// Environment variables read by [ApplyEnv].
const (
	EnvStorageMode   = "BLURT_STORAGE_MODE"
	EnvDataDir       = "BLURT_DATA_DIR"
	EnvMongoURI      = "BLURT_MONGO_URI"
	EnvMongoDB       = "BLURT_MONGO_DB"
	EnvUserID        = "BLURT_USER_ID"
	EnvCacheBackend  = "BLURT_CACHE_BACKEND"
	EnvRedisAddr     = "BLURT_REDIS_ADDR"
	EnvReducedMotion = "BLURT_REDUCED_MOTION"
	EnvListen        = "BLURT_LISTEN"
)

// DefaultListen is the HTTP API address used by "blurt serve".
const DefaultListen = "127.0.0.1:8787"

// Config holds every setting.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Cloud   CloudConfig   `toml:"cloud"`
	Cache   CacheConfig   `toml:"cache"`
	Board   BoardConfig   `toml:"board"`
	Server  ServerConfig  `toml:"server"`
}

// StorageConfig selects where sessions live.
type StorageConfig struct {
	// Mode is local, cloud or hybrid. Unknown values fall back to local.
	Mode    string `toml:"mode"`
	DataDir string `toml:"data_dir"`
}

// CloudConfig configures the cloud store.
type CloudConfig struct {
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	UserID        string `toml:"user_id"`
}

// CacheConfig configures the offline cache.
type CacheConfig struct {
	Backend   string `toml:"backend"`
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
}

// BoardConfig holds canvas and session defaults.
type BoardConfig struct {
	CanvasWidth        float64 `toml:"canvas_width"`
	CanvasHeight       float64 `toml:"canvas_height"`
	DefaultDurationSec int     `toml:"default_duration_sec"`
	ReducedMotion      bool    `toml:"reduced_motion"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in settings. Directories are left empty and
// resolved by [Config.DataDir] and [Config.CacheDir].
func Default() Config {
	return Config{
		Storage: StorageConfig{Mode: string(session.DefaultMode)},
		Cloud:   CloudConfig{MongoDatabase: session.DefaultMongoDatabase},
		Cache:   CacheConfig{Backend: cache.BackendFile, RedisAddr: cache.DefaultRedisAddr},
		Board: BoardConfig{
			CanvasWidth:        layout.DefaultCanvas.Width,
			CanvasHeight:       layout.DefaultCanvas.Height,
			DefaultDurationSec: session.DefaultDurationSec,
		},
		Server: ServerConfig{Listen: DefaultListen},
	}
}

// Path returns $XDG_CONFIG_HOME/blurt/config.toml, or the same under
// ~/.config.
func Path() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "blurt", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "blurt", "config.toml"), nil
}

// Load reads the config file at path (or [Path] when empty), the .env files
// and the environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		p, err := Path()
		if err != nil {
			return cfg, err
		}
		path = p
	}
	if err := cfg.ReadFile(path); err != nil {
		return cfg, err
	}
	if err := LoadDotEnv(".env.local", ".env"); err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ReadFile decodes a TOML file over cfg. A missing file leaves cfg as is.
func (c *Config) ReadFile(path string) error {
	_, err := toml.DecodeFile(path, c)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files without overriding
// ones already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", p)
		}
	}
	return nil
}

// ApplyEnv overrides settings from BLURT_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(EnvStorageMode, &c.Storage.Mode)
	str(EnvDataDir, &c.Storage.DataDir)
	str(EnvMongoURI, &c.Cloud.MongoURI)
	str(EnvMongoDB, &c.Cloud.MongoDatabase)
	str(EnvUserID, &c.Cloud.UserID)
	str(EnvCacheBackend, &c.Cache.Backend)
	str(EnvRedisAddr, &c.Cache.RedisAddr)
	str(EnvListen, &c.Server.Listen)

	if v, ok := lookup(EnvReducedMotion); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.New(errors.ErrCodeInvalidInput, "%s: %q is not a boolean", EnvReducedMotion, v)
		}
		c.Board.ReducedMotion = b
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend: unknown backend %q", c.Cache.Backend)
	}
	if c.Board.CanvasWidth < layout.NoteWidth || c.Board.CanvasHeight < layout.NoteBaseHeight {
		return errors.New(errors.ErrCodeInvalidInput, "board canvas %vx%v is smaller than one note",
			c.Board.CanvasWidth, c.Board.CanvasHeight)
	}
	if err := errors.ValidateDuration(c.Board.DefaultDurationSec); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.listen is required")
	}
	return nil
}

// Mode returns the storage mode, falling back to the default for unknown
// values.
func (c Config) Mode() session.StorageMode {
	return session.ModeOrDefault(c.Storage.Mode, session.DefaultMode)
}

// Canvas returns the default canvas size.
func (c Config) Canvas() layout.Size {
	return layout.Size{Width: c.Board.CanvasWidth, Height: c.Board.CanvasHeight}
}

// DataDir returns the local store directory, defaulting to
// ~/.local/share/blurt.
func (c Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "blurt"), nil
}

// CacheDir returns the file cache directory, defaulting to the user cache
// directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return filepath.Join(dir, "blurt"), nil
}

// CacheOptions returns the options for [cache.Open].
func (c Config) CacheOptions() (cache.Options, error) {
	dir, err := c.CacheDir()
	if err != nil {
		return cache.Options{}, err
	}
	return cache.Options{Backend: c.Cache.Backend, Dir: dir, RedisAddr: c.Cache.RedisAddr}, nil
}

// MongoOptions returns the options for [session.NewMongoStore].
func (c Config) MongoOptions() session.MongoOptions {
	return session.MongoOptions{
		URI:      c.Cloud.MongoURI,
		Database: c.Cloud.MongoDatabase,
		UserID:   c.Cloud.UserID,
	}
}
