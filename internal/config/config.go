// Package config reads process configuration from the environment with
// sensible defaults. Every knob is optional.
package config

import (
	"os"
	"strconv"
	"time"

	"bankbooks/internal/accountmatch"
	"bankbooks/internal/linker"
)

type Config struct {
	DBPath  string
	DataDir string // statement files live under DataDir/statements

	// External classifier. Disabled unless GEMINI_API_KEY (or the wider
	// GOOGLE_API_KEY) is present in the environment.
	ClassifierModel   string
	ClassifierTimeout time.Duration

	TransferWindowDays int
	FuzzyThreshold     float64
}

// Load builds the configuration from environment variables.
func Load() Config {
	return Config{
		DBPath:             envStr("BANKBOOKS_DB_PATH", "./data/bankbooks.db"),
		DataDir:            envStr("BANKBOOKS_DATA_DIR", "./data"),
		ClassifierModel:    envStr("BANKBOOKS_AI_MODEL", ""),
		ClassifierTimeout:  envDuration("BANKBOOKS_AI_TIMEOUT", 20*time.Second),
		TransferWindowDays: envInt("BANKBOOKS_TRANSFER_WINDOW_DAYS", linker.TransferWindowDays),
		FuzzyThreshold:     envFloat("BANKBOOKS_FUZZY_THRESHOLD", accountmatch.FuzzyThreshold),
	}
}

// ClassifierEnabled reports whether an API key is available for the
// external classifier.
func (c Config) ClassifierEnabled() bool {
	return os.Getenv("GEMINI_API_KEY") != "" || os.Getenv("GOOGLE_API_KEY") != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
