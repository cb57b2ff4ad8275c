package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultPath = "./configs/.env"

var (
	once     sync.Once
	instance *Config
)

type Config struct {
}

// New loads ./configs/.env once. A missing file is fine, the process
// environment is used as is.
func New() *Config {
	once.Do(func() {
		instance = Load(defaultPath)
	})
	return instance
}

// Load reads envs from paths without overriding variables already set.
func Load(paths ...string) *Config {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Info("env file not found, using process environment", slog.String("path", p))
				continue
			}
			slog.Error("loading envs error", slog.String("path", p), slog.String("error", err.Error()))
		}
	}
	return &Config{}
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

func (c *Config) GetStringOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in env, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return d
}

func (c *Config) GetInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid int in env, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return n
}
