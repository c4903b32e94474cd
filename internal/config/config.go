package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	DBDSN      string
	CORSOrigin string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	AuthJWKSURL  string
	AuthIssuer   string
	AuthAudience string
	AuthDisabled bool

	UserCascadeRetries int
	UserCascadeBackoff time.Duration
}

// Load reads the environment, with .env as a convenience for local runs.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:       getEnv("PORT", "8080"),
		DBDSN:      getEnv("DB_DSN", "root:secret@tcp(127.0.0.1:3306)/reborn?parseTime=true"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    getEnv("MINIO_BUCKET", "reborn-images"),
		MinIOUseSSL:    getBoolEnv("MINIO_USE_SSL", false),

		AuthJWKSURL:  getEnv("AUTH_JWKS_URL", ""),
		AuthIssuer:   getEnv("AUTH_ISSUER", ""),
		AuthAudience: getEnv("AUTH_AUDIENCE", ""),
		AuthDisabled: getBoolEnv("AUTH_DISABLED", false),

		UserCascadeRetries: getIntEnv("USER_CASCADE_RETRIES", 3),
		UserCascadeBackoff: time.Duration(getIntEnv("USER_CASCADE_BACKOFF_MS", 50)) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid %s value %q, defaulting to %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid %s value %q, defaulting to %d", key, value, fallback)
		return fallback
	}
	return parsed
}
