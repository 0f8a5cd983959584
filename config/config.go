package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendRedis     = "redis"
	BackendPostgres  = "postgres"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Firebase  FirebaseConfig
	Auth      AuthConfig
	Directory DirectoryConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

// FirebaseConfig holds the service credential trio plus the public web SDK values.
type FirebaseConfig struct {
	ProjectID    string
	PrivateKey   string
	ClientEmail  string
	PrivateKeyID string
	ClientID     string

	PublicAPIKey    string
	PublicProjectID string
}

// AuthConfig is read once at boot. BypassAuth has no runtime setter.
type AuthConfig struct {
	BypassAuth      bool
	AdminOnlyAccess bool
	CookieName      string
	CookieSecure    bool
	SessionTTL      time.Duration
}

type DirectoryConfig struct {
	Backend    string
	Collection string
}

type RedisConfig struct {
	Addr string
	DB   int
}

type DatabaseConfig struct {
	URL string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type JobsConfig struct {
	DriftAuditSchedule string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Firebase: FirebaseConfig{
			ProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
			PrivateKey:      normalizePrivateKey(os.Getenv("FIREBASE_PRIVATE_KEY")),
			ClientEmail:     os.Getenv("FIREBASE_CLIENT_EMAIL"),
			PrivateKeyID:    os.Getenv("FIREBASE_PRIVATE_KEY_ID"),
			ClientID:        os.Getenv("FIREBASE_CLIENT_ID"),
			PublicAPIKey:    os.Getenv("PUBLIC_FIREBASE_API_KEY"),
			PublicProjectID: os.Getenv("PUBLIC_FIREBASE_PROJECT_ID"),
		},
		Auth: AuthConfig{
			BypassAuth:      isTrue("BYPASS_AUTH"),
			AdminOnlyAccess: isTrue("ADMIN_ONLY_ACCESS"),
			CookieName:      getEnv("SESSION_COOKIE_NAME", "__session"),
			CookieSecure:    getEnv("COOKIE_SECURE", "true") != "false",
			SessionTTL:      getEnvAsDuration("SESSION_TTL", 5*24*time.Hour),
		},
		Directory: DirectoryConfig{
			Backend:    strings.ToLower(getEnv("DIRECTORY_BACKEND", BackendFirestore)),
			Collection: getEnv("DIRECTORY_COLLECTION", "users"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
			DB:   getEnvAsInt("REDIS_DB", 0),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Jobs: JobsConfig{
			DriftAuditSchedule: getEnv("DRIFT_AUDIT_SCHEDULE", "0 0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every missing or malformed value at once. The service
// refuses to start half-configured.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, fmt.Errorf("PORT is required"))
	}

	required := []struct {
		key   string
		value string
	}{
		{"FIREBASE_PROJECT_ID", c.Firebase.ProjectID},
		{"FIREBASE_PRIVATE_KEY", c.Firebase.PrivateKey},
		{"FIREBASE_CLIENT_EMAIL", c.Firebase.ClientEmail},
		{"PUBLIC_FIREBASE_API_KEY", c.Firebase.PublicAPIKey},
		{"PUBLIC_FIREBASE_PROJECT_ID", c.Firebase.PublicProjectID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.key))
		}
	}

	switch c.Directory.Backend {
	case BackendFirestore:
		if c.Directory.Collection == "" {
			errs = append(errs, fmt.Errorf("DIRECTORY_COLLECTION is required for the firestore backend"))
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("REDIS_ADDR is required for the redis backend"))
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_BACKEND %q is not one of firestore, redis, postgres", c.Directory.Backend))
	}

	if c.Auth.SessionTTL < 5*time.Minute || c.Auth.SessionTTL > 14*24*time.Hour {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be between 5m and 336h"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// isTrue only accepts the literal string "true".
func isTrue(key string) bool {
	return os.Getenv(key) == "true"
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizePrivateKey turns escaped "\n" sequences (as stored in most .env
// files and CI secrets) back into real newlines.
func normalizePrivateKey(key string) string {
	key = strings.Trim(key, `"`)
	return strings.ReplaceAll(key, `\n`, "\n")
}
