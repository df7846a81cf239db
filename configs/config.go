package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port            string
	Environment     string
	APIKey          string
	DatasetPath     string
	GeminiEndpoint  string
	GeminiAPIKey    string
	GeminiModel     string
	AITimeoutSecs   int
	AIMaxSampleRows int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		APIKey:          getEnv("API_KEY", ""),
		DatasetPath:     getEnv("DATASET_PATH", "data/sample_superstore.csv"),
		GeminiEndpoint:  getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		AITimeoutSecs:   getEnvInt("AI_TIMEOUT_SECONDS", 30),
		AIMaxSampleRows: getEnvInt("AI_MAX_SAMPLE_ROWS", 200),
	}
}

// AIConfigured reports whether the Gemini API key is present. Without it the
// AI features are disabled while the rest of the dashboard stays usable.
func (c *Config) AIConfigured() bool {
	return c.GeminiAPIKey != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
