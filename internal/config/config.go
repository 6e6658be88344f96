// Path: internal/config/config.go
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Client   ClientConfig
	Session  SessionConfig
	Checkout CheckoutConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// ClientConfig holds settings for the Open Food Facts API client.
type ClientConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	PageSize          int           `mapstructure:"page_size"`
	FullPageThreshold int           `mapstructure:"full_page_threshold"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	BurstLimit        int           `mapstructure:"burst_limit"`
	Retries           int           `mapstructure:"retries"`
	CategoryRetries   int           `mapstructure:"category_retries"`
	BackoffBase       time.Duration `mapstructure:"backoff_base"`
	BackoffFactor     float64       `mapstructure:"backoff_factor"`
}

// SessionConfig holds settings for per-browser session state.
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	CookieName      string        `mapstructure:"cookie_name"`
}

// CheckoutConfig holds settings for the simulated checkout flow.
type CheckoutConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// Load loads the configuration from file and environment variables.
func Load() (*Config, error) {
	// Set default values
	viper.SetDefault("SERVER.PORT", "8080")
	viper.SetDefault("CLIENT.BASE_URL", "https://world.openfoodfacts.org")
	viper.SetDefault("CLIENT.USER_AGENT", "FoodProductExplorer/1.0")
	viper.SetDefault("CLIENT.PAGE_SIZE", 24)
	viper.SetDefault("CLIENT.FULL_PAGE_THRESHOLD", 20)
	viper.SetDefault("CLIENT.TIMEOUT", 30*time.Second)
	viper.SetDefault("CLIENT.REQUESTS_PER_SECOND", 5)
	viper.SetDefault("CLIENT.BURST_LIMIT", 10)
	viper.SetDefault("CLIENT.RETRIES", 2)
	viper.SetDefault("CLIENT.CATEGORY_RETRIES", 1)
	viper.SetDefault("CLIENT.BACKOFF_BASE", time.Second)
	viper.SetDefault("CLIENT.BACKOFF_FACTOR", 1.5)
	viper.SetDefault("SESSION.TTL", 30*time.Minute)
	viper.SetDefault("SESSION.JANITOR_INTERVAL", time.Minute)
	viper.SetDefault("SESSION.COOKIE_NAME", "fpx_session")
	viper.SetDefault("CHECKOUT.DELAY", 3*time.Second)

	// Load from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err // Only return error if it's not a "file not found" error
		}
	}

	// Load from environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
