package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings. Values come from the environment, which
// may be seeded from a .env file in the working directory.
type Config struct {
	HTTP struct {
		Addr string
	}
	RPC struct {
		Socket string
	}
	Database struct {
		URL string
	}
	Auth struct {
		Username string
		Password string
		TokenTTL time.Duration
	}
	Log struct {
		Level  string
		Format string
	}
}

func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.RPC.Socket = getEnv("RPC_SOCKET", "/tmp/maintlog.sock")
	cfg.Database.URL = getEnv("DATABASE_URL", "maintlog.db")
	cfg.Auth.Username = os.Getenv("APP_USERNAME")
	cfg.Auth.Password = os.Getenv("APP_PASSWORD")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	cfg.Auth.TokenTTL = ttl

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
