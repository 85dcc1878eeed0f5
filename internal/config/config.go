// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// Config carries every runtime knob the server reads. All values come from
// the environment (a .env file is autoloaded in development) with defaults
// that work for a bare local run.
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       logrus.Level
	RevealTimeout  time.Duration
}

// Load reads the environment into a Config.
func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		RevealTimeout: time.Duration(getEnvInt("REVEAL_TIMEOUT_SEC", 10)) * time.Second,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.LogLevel = logrus.InfoLevel
	if lvl, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		cfg.LogLevel = lvl
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
