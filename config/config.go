package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the server-side configuration. The calculation surface itself
// (profiles, policies, exchange rates) is supplied per invocation, never
// from the environment.
type Config struct {
	HTTPAddr   string
	LogLevel   string
	Env        string // dev|prod
	ProfileDir string // directory of TOML format profiles
}

// Load reads configuration from the environment, after loading an optional
// .env file. Every key has a working default.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPAddr:   getenv("HTTP_ADDR", ":8080"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		Env:        getenv("ENV", "dev"),
		ProfileDir: getenv("PROFILE_DIR", "./profiles"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
