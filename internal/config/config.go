package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int
	MaxWorkers   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Logging configuration
	LogFormat string
	LogLevel  string

	// Storage configuration
	StorageDriver  string
	PostgresDBURL  string
	AutoMigrate    bool
	ArchiveEnabled bool
	S3Endpoint     string
	S3AccessKeyID  string
	S3Secret       string
	S3Bucket       string
	S3Region       string

	// Currency configuration
	FXEnabled      bool
	FXBaseCurrency string
	FXAPIURL       string
	FXCacheTTL     time.Duration
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	loadDotEnv()

	config := &Config{
		// Server configuration
		Port:         getEnvInt("PORT", 8080),
		MaxWorkers:   getEnvInt("MAX_WORKERS", 5),
		ReadTimeout:  getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("WRITE_TIMEOUT", 15*time.Second),

		// Logging configuration
		LogFormat: getEnvString("LOG_FORMAT", "json"),
		LogLevel:  getEnvString("LOG_LEVEL", "info"),

		// Storage configuration
		StorageDriver:  strings.ToLower(getEnvString("STORAGE_DRIVER", StorageMemory)),
		PostgresDBURL:  os.Getenv("POSTGRES_DB_URL"),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", false),
		ArchiveEnabled: getEnvBool("ARCHIVE_VERSIONS", true),
		S3Endpoint:     os.Getenv("SUPABASE_S3_ENDPOINT"),
		S3AccessKeyID:  os.Getenv("SUPABASE_S3_ACCESS_KEY_ID"),
		S3Secret:       os.Getenv("SUPABASE_S3_SECRET"),
		S3Bucket:       getEnvString("SUPABASE_S3_BUCKET", "quote-versions"),
		S3Region:       getEnvString("SUPABASE_S3_REGION", "ap-southeast-1"),

		// Currency configuration
		FXEnabled:      getEnvBool("FX_ENABLED", false),
		FXBaseCurrency: strings.ToUpper(getEnvString("FX_BASE_CURRENCY", "TWD")),
		FXAPIURL:       getEnvString("FX_API_URL", "https://api.frankfurter.dev/v1"),
		FXCacheTTL:     getEnvDuration("FX_CACHE_TTL", time.Hour),
	}

	// Validate critical configuration
	validateConfig(config)

	return config, nil
}

// loadDotEnv loads .env from the project root, falling back to the working directory
func loadDotEnv() {
	execPath, err := os.Executable()
	if err != nil {
		log.Printf("Warning: Could not determine executable path: %v", err)
	}

	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(execPath)))
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading .env file. Using environment variables.")
		} else {
			log.Println("Loaded environment variables from current directory .env file")
		}
	} else {
		log.Printf("Loaded environment variables from %s", envPath)
	}
}

// S3Configured reports whether every S3 credential is present
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKeyID != "" && c.S3Secret != "" && c.S3Bucket != ""
}

// validateConfig checks if critical configuration values are set and logs warnings if they're missing
func validateConfig(config *Config) {
	switch config.StorageDriver {
	case StorageMemory, StoragePostgres:
	default:
		log.Printf("Warning: Unknown STORAGE_DRIVER %q, falling back to %s.", config.StorageDriver, StorageMemory)
		config.StorageDriver = StorageMemory
	}

	if config.StorageDriver == StoragePostgres && config.PostgresDBURL == "" {
		log.Println("Warning: STORAGE_DRIVER is postgres but no POSTGRES_DB_URL provided. Database connection will fail.")
	}

	if config.ArchiveEnabled && !config.S3Configured() {
		log.Println("Warning: Supabase S3 storage is not fully configured. Version archiving is disabled.")
		config.ArchiveEnabled = false
	}

	if config.MaxWorkers <= 0 {
		log.Printf("Warning: MAX_WORKERS must be positive, using default: %d", 5)
		config.MaxWorkers = 5
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %s", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
