package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	Firebase  FirebaseConfig
	Store     StoreConfig
	Auth      AuthConfig
	Photos    PhotoConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type JWTConfig struct {
	Secret                 string
	Expiration             time.Duration
	RefreshTokenExpiration time.Duration
	SessionTTL             time.Duration
}

type FirebaseConfig struct {
	ProjectID          string
	CredentialsPath    string
	DatabaseURL        string
	APIKey             string
	IdentityToolkitURL string
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	Backend string // rtdb, firestore or memory
	Root    string
}

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Provider string // firebase or local
}

// PhotoConfig selects where stored photos are kept.
type PhotoConfig struct {
	Backend string // local, s3, firebase or memory
	Dir     string
	Bucket  string // Firebase Storage bucket
	S3      S3Config
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

const devSecret = "dev-secret-key"

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Host:        getEnv("HOST", "0.0.0.0"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		JWT: JWTConfig{
			Secret:                 getEnv("JWT_SECRET", devSecret),
			Expiration:             parseDuration(getEnv("JWT_EXPIRATION", "30m"), 30*time.Minute),
			RefreshTokenExpiration: parseDuration(getEnv("REFRESH_TOKEN_EXPIRATION", "7d"), 7*24*time.Hour),
			SessionTTL:             parseDuration(getEnv("SESSION_TTL", "7d"), 7*24*time.Hour),
		},
		Firebase: FirebaseConfig{
			ProjectID:          getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsPath:    getEnv("FIREBASE_CREDENTIALS_PATH", "./serviceAccountKey.json"),
			DatabaseURL:        getEnv("FIREBASE_DATABASE_URL", ""),
			APIKey:             getEnv("FIREBASE_API_KEY", ""),
			IdentityToolkitURL: getEnv("IDENTITY_TOOLKIT_URL", "https://identitytoolkit.googleapis.com"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", "rtdb")),
			Root:    getEnv("STORE_ROOT", "temizlikTakip"),
		},
		Auth: AuthConfig{
			Provider: strings.ToLower(getEnv("AUTH_PROVIDER", "firebase")),
		},
		Photos: PhotoConfig{
			Backend: strings.ToLower(getEnv("PHOTO_BACKEND", "local")),
			Dir:     getEnv("PHOTO_DIR", "./data/photos"),
			Bucket:  getEnv("FIREBASE_STORAGE_BUCKET", ""),
			S3: S3Config{
				Region:          getEnv("AWS_REGION", "us-east-1"),
				Bucket:          getEnv("AWS_S3_BUCKET", ""),
				AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		RateLimit: RateLimitConfig{
			Requests: parseInt(getEnv("RATE_LIMIT_REQUESTS", "100"), 100),
			Window:   parseDuration(getEnv("RATE_LIMIT_WINDOW", "60"), 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultValue
}

// parseDuration accepts Go durations, a day suffix ("7d") or bare seconds ("60").
func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if strings.HasSuffix(s, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(s, "d")); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func parseStringSlice(s string) []string {
	result := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// UsesFirebase reports whether any configured backend needs a Firebase app.
func (c *Config) UsesFirebase() bool {
	return c.Store.Backend == "rtdb" || c.Store.Backend == "firestore" ||
		c.Auth.Provider == "firebase" || c.Photos.Backend == "firebase"
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	if c.JWT.Secret == devSecret && c.IsProduction() {
		return errors.New("JWT_SECRET must be set in production")
	}

	switch c.Store.Backend {
	case "rtdb":
		if c.Firebase.DatabaseURL == "" {
			return errors.New("FIREBASE_DATABASE_URL must be set for the rtdb store")
		}
	case "firestore", "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND: %s", c.Store.Backend)
	}

	switch c.Auth.Provider {
	case "firebase":
		if c.Firebase.APIKey == "" {
			return errors.New("FIREBASE_API_KEY must be set for firebase authentication")
		}
	case "local":
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER: %s", c.Auth.Provider)
	}

	switch c.Photos.Backend {
	case "s3":
		if c.Photos.S3.Bucket == "" {
			return errors.New("AWS_S3_BUCKET must be set for the s3 photo store")
		}
	case "firebase":
		if c.Photos.Bucket == "" {
			return errors.New("FIREBASE_STORAGE_BUCKET must be set for the firebase photo store")
		}
	case "local", "memory":
	default:
		return fmt.Errorf("unknown PHOTO_BACKEND: %s", c.Photos.Backend)
	}

	if c.UsesFirebase() {
		if c.Firebase.ProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID must be set")
		}
		if _, err := os.Stat(c.Firebase.CredentialsPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase credentials file not found: %s", c.Firebase.CredentialsPath)
		}
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}

	return nil
}
