package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Env         string
	Port        string
	CORSOrigins []string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Access control
	AdminEmails    []string
	PipelineAPIKey string

	// External OpenID Connect provider (optional)
	OIDCIssuerURL string
	OIDCClientID  string

	// Notifications
	NATSURL    string
	NATSStream string
	NotifyTo   string
	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPFrom   string

	// Association data printed on invoices
	AssociationName    string
	AssociationCIF     string
	AssociationAddress string
	AssociationEmail   string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ecoaceite"),
		DBPassword: getEnv("DB_PASSWORD", "ecoaceite"),
		DBName:     getEnv("DB_NAME", "ecoaceite"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "ecoaceite.db"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		AdminEmails:    splitList(strings.ToLower(getEnv("ADMIN_EMAILS", ""))),
		PipelineAPIKey: getEnv("PIPELINE_API_KEY", ""),

		OIDCIssuerURL: getEnv("OIDC_ISSUER_URL", ""),
		OIDCClientID:  getEnv("OIDC_CLIENT_ID", ""),

		NATSURL:    getEnv("NATS_URL", ""),
		NATSStream: getEnv("NATS_STREAM", "NOTIFICATIONS"),
		NotifyTo:   getEnv("NOTIFY_TO", "info@ecoaceite.org"),
		SMTPHost:   getEnv("SMTP_HOST", "localhost"),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:   getEnv("SMTP_FROM", "no-reply@ecoaceite.org"),

		AssociationName:    getEnv("ASSOCIATION_NAME", "Asociación Ecoaceite"),
		AssociationCIF:     getEnv("ASSOCIATION_CIF", ""),
		AssociationAddress: getEnv("ASSOCIATION_ADDRESS", ""),
		AssociationEmail:   getEnv("ASSOCIATION_EMAIL", "info@ecoaceite.org"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 15m\n", expStr)
		expDur = 15 * time.Minute
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Set replaces the process-wide configuration. Tests use it to avoid reading .env.
func Set(c *Config) {
	appConfig = c
}

// OIDCEnabled reports whether an external identity provider is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuerURL != "" && c.OIDCClientID != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// splitList turns a comma separated value into a trimmed, non-empty slice.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
