package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

/* Configuration is read once at startup, from the environment plus an
 * optional .env file. There is no hot reload: credentials and the
 * destination URL are static for the process lifetime.
 */

type Config struct {
	Port   string `mapstructure:"PORT"`
	AppEnv string `mapstructure:"APP_ENV"`

	// Credentials for the portal integration channel
	APIKey        string `mapstructure:"API_KEY"`
	APISecret     string `mapstructure:"API_SECRET"`
	WebhookSecret string `mapstructure:"WEBHOOK_SECRET"`

	// Outbound webhook destination; empty disables the integration
	PortalWebhookURL      string `mapstructure:"PORTAL_WEBHOOK_URL"`
	WebhookTimeoutSeconds int    `mapstructure:"WEBHOOK_TIMEOUT_SECONDS"`
	WebhookMaxRetries     int    `mapstructure:"WEBHOOK_MAX_RETRIES"`

	// Inbound gate settings
	AllowedIPs             string `mapstructure:"ALLOWED_IPS"`
	AllowlistFile          string `mapstructure:"ALLOWLIST_FILE"`
	RateLimitMax           int    `mapstructure:"RATE_LIMIT_MAX"`
	RateLimitWindowSeconds int    `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`

	// Optional durable retry queue; empty keeps the in-memory queue
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

func GetConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("toml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("API_KEY", "")
	viper.SetDefault("API_SECRET", "")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("PORTAL_WEBHOOK_URL", "")
	viper.SetDefault("WEBHOOK_TIMEOUT_SECONDS", 10)
	viper.SetDefault("WEBHOOK_MAX_RETRIES", 3)
	viper.SetDefault("ALLOWED_IPS", "")
	viper.SetDefault("ALLOWLIST_FILE", "")
	viper.SetDefault("RATE_LIMIT_MAX", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	err := viper.ReadInConfig()
	if err != nil {
		// The .env file is a local development convenience; in
		// production everything comes from the environment
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	err = viper.Unmarshal(&config)
	if err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}
