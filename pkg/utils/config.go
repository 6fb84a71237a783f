package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"foodgram/internal/validation"
)

const (
	EnvPrefix     = "FOODGRAM_"
	ConfigPathEnv = "FOODGRAM_CONFIG"
)

var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/foodgram/config.yaml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Redis    RedisConfig    `koanf:"redis"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	HTTPAddr    string   `koanf:"http_addr" validate:"required"`
	SyncAddr    string   `koanf:"sync_addr"`
	BaseURL     string   `koanf:"base_url" validate:"required,url"`
	CORSOrigins []string `koanf:"cors_origins"`
	// RateLimit is requests per second per client on /api routes; 0 disables.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret   string `koanf:"jwt_secret" validate:"required"`
	JWTIssuer   string `koanf:"jwt_issuer" validate:"required"`
	JWTTTLHours int    `koanf:"jwt_ttl_hours" validate:"gte=1"`
}

func (a AuthConfig) JWTDuration() time.Duration {
	return time.Duration(a.JWTTTLHours) * time.Hour
}

// RedisConfig enables the ingredient search cache when Addr is set.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

func defaultConfig() Config {
	dbPath := ".foodgram/data.db"
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dbPath = home + "/.foodgram/data.db"
	}
	return Config{
		Server: ServerConfig{
			HTTPAddr:    ":8080",
			SyncAddr:    ":7070",
			BaseURL:     "http://localhost:8080",
			CORSOrigins: []string{"*"},
			RateLimit:   10,
			RateBurst:   20,
		},
		Database: DatabaseConfig{Path: dbPath},
		Auth: AuthConfig{
			// dev default, override in any real deployment
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "foodgram",
			JWTTTLHours: 24,
		},
		Redis: RedisConfig{TTL: 10 * time.Minute},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration with precedence env > file > defaults. A .env
// file in the working directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load without the .env step; path may be empty.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validation.New().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey maps FOODGRAM_AUTH_JWT_SECRET to auth.jwt_secret: the first
// segment after the prefix is the section.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
