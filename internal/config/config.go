// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// SessionSecret signs session tokens (HS256). Required.
	SessionSecret string

	// SessionTTL is how long a session token stays valid. Defaults to 30 days.
	SessionTTL time.Duration

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:3000"].
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// AllowAnonymousTrips lets unauthenticated callers create trips.
	AllowAnonymousTrips bool

	// AutoMigrate applies pending migrations at startup. Defaults to true.
	AutoMigrate bool

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64

	// UploadMaxFileBytes caps each uploaded file.
	UploadMaxFileBytes int64

	// UploadDir and UploadPublicPath configure the local blob store used
	// when no S3 bucket is set.
	UploadDir        string
	UploadPublicPath string

	S3 S3

	OpenAI OpenAI

	// AdminEmail and AdminPassword seed an admin account when both are set.
	AdminEmail    string
	AdminPassword string
}

// S3 configures the S3 blob store. It is enabled when Bucket is set.
type S3 struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// OpenAI configures the itinerary drafter. An empty APIKey disables it.
type OpenAI struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		UploadPublicPath: getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
		S3: S3{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		OpenAI: OpenAI{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 720*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AllowAnonymousTrips, err = getBool("ALLOW_ANONYMOUS_TRIPS", false); err != nil {
		return Config{}, err
	}
	if cfg.AutoMigrate, err = getBool("AUTO_MIGRATE", true); err != nil {
		return Config{}, err
	}
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.UploadMaxFileBytes, err = getInt64("UPLOAD_MAX_FILE_BYTES", 10<<20); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: must be a positive duration, got %q", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
