// Package config loads runtime configuration from the environment, with
// an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the store and annotation pipeline.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string

	// Addr is the message router listen address.
	Addr string

	// MarkerClass is the class applied to visited links.
	MarkerClass string

	// LinkFilter is an optional expr expression; matching URLs are
	// excluded from annotation.
	LinkFilter string

	// Debounce is the mutation debounce window.
	Debounce time.Duration

	// WindowDays is the sliding import window for visit sources.
	WindowDays int
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored if present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		DBPath:      getEnv("LINKMARK_DB", defaultDBPath()),
		Addr:        getEnv("LINKMARK_ADDR", ":8471"),
		MarkerClass: getEnv("LINKMARK_MARKER_CLASS", ""),
		LinkFilter:  getEnv("LINKMARK_LINK_FILTER", ""),
		Debounce:    time.Duration(getEnvInt("LINKMARK_DEBOUNCE_MS", 300)) * time.Millisecond,
		WindowDays:  getEnvInt("LINKMARK_WINDOW_DAYS", 90),
	}
}

// Window returns the sliding import window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "linkmark.db"
	}
	return filepath.Join(home, ".linkmark", "visits.db")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
