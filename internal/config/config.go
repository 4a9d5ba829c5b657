// Package config assembles server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":4000".
	Addr string
	// UploadsDir is where original and processed photos are written.
	UploadsDir string
	// DBPath is the SQLite file for the listing cache and publish history.
	DBPath string
	// GeminiAPIKey enables the generate-listing endpoint. The mock
	// generator is used unless UseGemini is also set.
	GeminiAPIKey string
	// UseGemini routes listing generation through the Gemini API.
	UseGemini bool
	// StageTimeout bounds each workflow pipeline stage.
	StageTimeout time.Duration
	// SessionIdleTimeout is how long an idle workflow session is kept.
	SessionIdleTimeout time.Duration
	// AllowedOrigins is the CORS whitelist.
	AllowedOrigins []string
}

// LoadEnvFile loads a local .env file if present. Errors are ignored since
// the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// Load reads the configuration from the environment, applying defaults.
func Load() Config {
	cfg := Config{
		Addr:               getenv("SNAPSELL_ADDR", ":4000"),
		UploadsDir:         getenv("SNAPSELL_UPLOADS_DIR", "public/uploads"),
		DBPath:             getenv("SNAPSELL_DB_PATH", "snapsell.db"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		UseGemini:          boolenv("SNAPSELL_USE_GEMINI"),
		StageTimeout:       durationenv("SNAPSELL_STAGE_TIMEOUT_SECONDS", 30*time.Second),
		SessionIdleTimeout: durationenv("SNAPSELL_SESSION_IDLE_MINUTES", 0),
		AllowedOrigins:     splitenv("SNAPSELL_ALLOWED_ORIGINS", "http://localhost:3000"),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolenv(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func durationenv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	switch {
	case strings.HasSuffix(key, "_MINUTES"):
		return time.Duration(n) * time.Minute
	default:
		return time.Duration(n) * time.Second
	}
}

func splitenv(key, fallback string) []string {
	v := getenv(key, fallback)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
