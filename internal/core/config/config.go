// Package config loads service configuration from environment variables
// with an optional .env file for local development.
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Portal   PortalConfig
	Pricing  PricingConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// PortalConfig configures the external e-invoice registration portal.
type PortalConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// PricingConfig holds document computation settings.
type PricingConfig struct {
	// LoyaltyRate converts one loyalty point to currency (default 1:1).
	LoyaltyRate string
	// IssuerStateCode determines intra- vs inter-state tax splitting.
	IssuerStateCode string
	// DefaultTaxPercent applies when a product has no tax table entry.
	DefaultTaxPercent string
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	viper.SetDefault("APP_NAME", "retailcore")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "retailcore")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("PORTAL_BASE_URL", "http://localhost:9090")
	viper.SetDefault("PORTAL_API_KEY", "")
	viper.SetDefault("PORTAL_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PORTAL_MAX_ATTEMPTS", 4)
	viper.SetDefault("PORTAL_BACKOFF_BASE_MS", 200)
	viper.SetDefault("LOYALTY_RATE", "1")
	viper.SetDefault("ISSUER_STATE_CODE", "29")
	viper.SetDefault("DEFAULT_TAX_PERCENT", "18")

	return &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
		},
		Portal: PortalConfig{
			BaseURL:     viper.GetString("PORTAL_BASE_URL"),
			APIKey:      viper.GetString("PORTAL_API_KEY"),
			Timeout:     time.Duration(viper.GetInt("PORTAL_TIMEOUT_SECONDS")) * time.Second,
			MaxAttempts: viper.GetInt("PORTAL_MAX_ATTEMPTS"),
			BackoffBase: time.Duration(viper.GetInt("PORTAL_BACKOFF_BASE_MS")) * time.Millisecond,
		},
		Pricing: PricingConfig{
			LoyaltyRate:       viper.GetString("LOYALTY_RATE"),
			IssuerStateCode:   viper.GetString("ISSUER_STATE_CODE"),
			DefaultTaxPercent: viper.GetString("DEFAULT_TAX_PERCENT"),
		},
	}
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode
}
