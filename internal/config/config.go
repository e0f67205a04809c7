package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"socialnet/internal/model"
)

type Config struct {
	Env string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string

	JWTSecret string
	// JWTExpiresMinutes is the lifetime of a session token and its cookie.
	JWTExpiresMinutes int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
	S3Endpoint        string

	DefaultProfileImageURL string
	DefaultProfileImageKey string

	UnblockPolicy model.UnblockPolicy

	RedisURL string

	LogLevel        string
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
	CleanupWorkers  int
	CleanupQueueLen int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "development"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnv("DB_SSLMODE", "require"),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTExpiresMinutes: getEnvInt("JWT_EXPIRES", 60),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),

		DefaultProfileImageURL: os.Getenv("DEFAULT_PROFILE_IMAGE_URL"),
		DefaultProfileImageKey: os.Getenv("DEFAULT_PROFILE_IMAGE_KEY"),

		UnblockPolicy: model.UnblockPolicy(strings.ToLower(getEnv("UNBLOCK_FOLLOW_POLICY", string(model.UnblockRestoreAlways)))),

		RedisURL: os.Getenv("REDIS_URL"),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFile:         os.Getenv("LOG_FILE"),
		LogMaxSizeMB:    getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:   getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:   getEnvInt("LOG_MAX_AGE_DAYS", 30),
		CleanupWorkers:  getEnvInt("CLEANUP_WORKERS", 2),
		CleanupQueueLen: getEnvInt("CLEANUP_QUEUE_SIZE", 256),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.JWTExpiresMinutes <= 0 {
		return fmt.Errorf("JWT_EXPIRES must be a positive number of minutes")
	}
	if !c.UnblockPolicy.Valid() {
		return fmt.Errorf("invalid UNBLOCK_FOLLOW_POLICY %q (allowed: always, severed, never)", c.UnblockPolicy)
	}
	return nil
}

// IsProduction toggles the Secure attribute of the session cookie.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// StorageConfigured reports whether an S3-compatible bucket is available for media.
func (c *Config) StorageConfigured() bool {
	hasEndpoint := c.R2AccountID != "" || c.S3Endpoint != ""
	return hasEndpoint && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicURL != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
