// package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// database
	DatabaseURL string

	// nats
	NatsURL string

	// browser
	Headless      bool
	BrowserPath   string
	DebugMode     bool
	ScreenshotDir string

	// media cache
	MediaDir string

	// crawl defaults
	DefaultCountry    string
	DefaultMaxAds     int
	RunTimeoutMinutes int

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	// a missing .env file is fine, the environment wins anyway
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "file:vigia.db"),
		NatsURL:           getEnv("NATS_URL", ""),
		Headless:          getEnvBool("HEADLESS", true),
		BrowserPath:       getEnv("BROWSER_PATH", ""),
		DebugMode:         getEnvBool("DEBUG_MODE", false),
		ScreenshotDir:     getEnv("SCREENSHOT_DIR", "./screenshots"),
		MediaDir:          getEnv("MEDIA_DIR", "./public/media"),
		DefaultCountry:    getEnv("DEFAULT_COUNTRY", "BR"),
		DefaultMaxAds:     getEnvInt("DEFAULT_MAX_ADS", 50),
		RunTimeoutMinutes: getEnvInt("RUN_TIMEOUT_MINUTES", 15),
		HTTPPort:          getEnvInt("HTTP_PORT", 3100),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", "./logs/app.log"),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
