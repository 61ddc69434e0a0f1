package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all application configuration
type Config struct {
	Port               string
	GoEnv              string
	WorkbookPath       string
	WorkbookSheet      string
	StorageBackend     string
	AWSRegion          string
	AWSS3Bucket        string
	AWSS3Key           string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	Auth0Domain        string
	Auth0Audience      string
	LogLevel           string
	LogFormat          string
	AllowedOrigins     []string
}

var current *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	// Environment-specific file first, then .env; neither is required
	// since deployments set variables directly
	envFile := fmt.Sprintf(".env.%s", env)
	loaded := envFile
	if err := godotenv.Load(envFile); err != nil {
		loaded = ".env"
		if err := godotenv.Load(); err != nil {
			loaded = ""
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	config := &Config{
		Port:               v.GetString("PORT"),
		GoEnv:              v.GetString("GO_ENV"),
		WorkbookPath:       v.GetString("WORKBOOK_PATH"),
		WorkbookSheet:      v.GetString("WORKBOOK_SHEET"),
		StorageBackend:     strings.ToLower(v.GetString("STORAGE_BACKEND")),
		AWSRegion:          v.GetString("AWS_REGION"),
		AWSS3Bucket:        v.GetString("AWS_S3_BUCKET"),
		AWSS3Key:           v.GetString("AWS_S3_KEY"),
		AWSAccessKeyID:     v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: v.GetString("AWS_SECRET_ACCESS_KEY"),
		Auth0Domain:        v.GetString("AUTH0_DOMAIN"),
		Auth0Audience:      v.GetString("AUTH0_AUDIENCE"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		AllowedOrigins:     splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if loaded != "" {
		fmt.Fprintf(os.Stderr, "Loaded configuration from %s\n", loaded)
	}

	current = config
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", EnvDevelopment)
	v.SetDefault("WORKBOOK_PATH", "ordenes.xlsx")
	v.SetDefault("WORKBOOK_SHEET", "Bitácora")
	v.SetDefault("STORAGE_BACKEND", StorageLocal)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("AWS_S3_KEY", "ordenes.xlsx")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALLOWED_ORIGINS", "")
}

// Validate checks that the configuration is consistent
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageLocal:
		if c.WorkbookPath == "" {
			return fmt.Errorf("WORKBOOK_PATH is required for the local storage backend")
		}
	case StorageS3:
		if c.AWSS3Bucket == "" {
			return fmt.Errorf("AWS_S3_BUCKET is required for the s3 storage backend")
		}
		if c.AWSS3Key == "" {
			return fmt.Errorf("AWS_S3_KEY is required for the s3 storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected %q or %q)", c.StorageBackend, StorageLocal, StorageS3)
	}
	if c.Auth0Domain != "" && c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required when AUTH0_DOMAIN is set")
	}
	return nil
}

// AuthEnabled reports whether mutating endpoints require a JWT
func (c *Config) AuthEnabled() bool {
	return c.Auth0Domain != ""
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == EnvProduction
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == EnvTest
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == EnvDevelopment
}

// GetConfig returns the configuration from the last successful Load
func GetConfig() *Config {
	return current
}

// SetConfig replaces the current configuration (primarily for testing)
func SetConfig(cfg *Config) {
	current = cfg
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
