package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Issuer string // Issuer claim for access tokens (default: identity)

	DatabaseFile string // Path to SQLite database file (default: ./identity.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	AccessTokenTTL time.Duration // Access token lifetime (default: 30m)
	CookieName     string        // Session cookie name (default: access_token)
	CookieSecure   bool          // Set the Secure flag on the session cookie (default: false)
	SkipPrefixes   []string      // Path prefixes that bypass the session gate

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	VerificationCodeTTL     time.Duration // Code validity window (default: 5m)
	VerificationMaxAttempts int           // Wrong-code budget per pending registration (default: 5)
	CleanupInterval         time.Duration // Cleanup sweep interval (default: 60s)
	PendingRetention        time.Duration // Unfinalized registration retention (default: 15m)

	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("IDENTITY_ISSUER", "identity"),
		DatabaseFile: getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:   getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		AccessTokenTTL: getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 30*time.Minute),
		CookieName:     getEnvOrDefault("COOKIE_NAME", "access_token"),
		CookieSecure:   getEnvBoolOrDefault("COOKIE_SECURE", false),
		SkipPrefixes:   getEnvListOrDefault("AUTH_SKIP_PREFIXES", defaultSkipPrefixes),

		SMTPHost:     getEnvOrDefault("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "no-reply@localhost"),

		VerificationCodeTTL:     getEnvDurationOrDefault("VERIFICATION_CODE_TTL", 5*time.Minute),
		VerificationMaxAttempts: getEnvIntOrDefault("VERIFICATION_MAX_ATTEMPTS", 5),
		CleanupInterval:         getEnvDurationOrDefault("CLEANUP_INTERVAL", 60*time.Second),
		PendingRetention:        getEnvDurationOrDefault("PENDING_RETENTION", 15*time.Minute),

		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

// defaultSkipPrefixes covers everything a caller can reach without a session:
// the signup and reset flows, login itself, health checks, and the API docs.
var defaultSkipPrefixes = []string{
	"/v1/register",
	"/v1/password-reset",
	"/v1/login",
	"/livez",
	"/readyz",
	"/swagger",
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}

// getEnvListOrDefault parses a comma-separated list.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
