// Package config provides configuration loading and management for the archive service.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// In development, it loads .env and .env.local files if they exist.
// In production, it relies solely on system environment variables.
// godotenv.Load() does not override already-set variables, preserving
// OS env > .env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// .env.local holds local overrides and is gitignored
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the archive service.
type Config struct {
	Env       string // Deployment environment (dev, staging, prod)
	Port      string // HTTP server port
	StorePath string // Path of the JSON store file (file backend)

	// Optional PostgreSQL backend; when set, it replaces the file store.
	DatabaseDSN string

	NATSURL string // NATS server URL for event publishing

	// Object storage (S3-compatible)
	S3Endpoint   string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	BucketPrefix string // prepended to per-category bucket names

	// Generative-text API (OpenAI-compatible)
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// Media limits
	MaxMediaSize     int64    // Maximum media size in bytes (default 25MB)
	AllowedMimeTypes []string // Allowed MIME types for media uploads

	// Optional remote schema override for record validation
	SchemasURL string

	// CORS configuration
	CORSAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultPort      = "8080"
	defaultS3Region  = "us-east-1"
	defaultEnv       = "dev"
	defaultStorePath = "data/martyrs.json"
	defaultAIModel   = "gpt-4o-mini"
)

// Load reads environment variables and produces a Config suitable for wiring
// the service. All settings have workable defaults except object-storage
// credentials, which must come in pairs when an endpoint is configured.
func Load() (Config, error) {
	cfg := Config{
		Env:       getEnv("ARCHIVE_ENV", defaultEnv),
		Port:      getEnv("ARCHIVE_PORT", defaultPort),
		StorePath: getEnv("ARCHIVE_STORE_PATH", defaultStorePath),
		S3Region:  getEnv("ARCHIVE_S3_REGION", defaultS3Region),
		AIModel:   getEnv("ARCHIVE_AI_MODEL", defaultAIModel),
	}

	cfg.DatabaseDSN = os.Getenv("ARCHIVE_DB_DSN")
	cfg.NATSURL = os.Getenv("ARCHIVE_NATS_URL")
	cfg.S3Endpoint = os.Getenv("ARCHIVE_S3_ENDPOINT")
	cfg.S3AccessKey = os.Getenv("ARCHIVE_S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("ARCHIVE_S3_SECRET_KEY")
	cfg.BucketPrefix = getEnv("ARCHIVE_BUCKET_PREFIX", "martyr-archive")
	cfg.AIBaseURL = os.Getenv("ARCHIVE_AI_BASE_URL")
	cfg.AIAPIKey = os.Getenv("ARCHIVE_AI_API_KEY")
	cfg.SchemasURL = os.Getenv("ARCHIVE_SCHEMAS_URL")

	if maxMediaSize, exists := os.LookupEnv("ARCHIVE_MAX_MEDIA_SIZE"); exists {
		if size, err := strconv.ParseInt(maxMediaSize, 10, 64); err == nil {
			cfg.MaxMediaSize = size
		}
	}
	if cfg.MaxMediaSize == 0 {
		cfg.MaxMediaSize = 25 * 1024 * 1024
	}

	if allowed, exists := os.LookupEnv("ARCHIVE_ALLOWED_MIME_TYPES"); exists {
		cfg.AllowedMimeTypes = splitAndTrim(allowed)
	} else {
		cfg.AllowedMimeTypes = []string{
			"image/jpeg", "image/png", "image/gif", "image/webp",
			"audio/mpeg", "audio/wav", "audio/ogg",
			"video/mp4", "video/webm",
			"application/pdf",
		}
	}

	if corsOrigins, exists := os.LookupEnv("ARCHIVE_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = splitAndTrim(corsOrigins)
	}

	if cfg.S3Endpoint != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return cfg, fmt.Errorf("ARCHIVE_S3_ACCESS_KEY and ARCHIVE_S3_SECRET_KEY are required when ARCHIVE_S3_ENDPOINT is set")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// splitAndTrim splits a comma-separated list and trims whitespace from each entry
func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
