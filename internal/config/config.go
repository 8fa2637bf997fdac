package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// Config holds the application configuration.
type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseDriver  string `mapstructure:"DATABASE_DRIVER"`
	MongoURI        string `mapstructure:"MONGO_URI"`
	MongoURITest    string `mapstructure:"MONGO_URI_TEST"`
	MongoDatabase   string `mapstructure:"MONGO_DATABASE"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DatabaseURLTest string `mapstructure:"DATABASE_URL_TEST"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	LoginRateLimit float64 `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateBurst int     `mapstructure:"LOGIN_RATE_BURST"`

	IGDBClientID           string        `mapstructure:"IGDB_CLIENT_ID"`
	IGDBClientSecret       string        `mapstructure:"IGDB_CLIENT_SECRET"`
	IGDBAccessToken        string        `mapstructure:"IGDB_ACCESS_TOKEN"`
	CatalogRefreshInterval time.Duration `mapstructure:"CATALOG_REFRESH_INTERVAL"`
	CatalogRefreshBatches  int           `mapstructure:"CATALOG_REFRESH_BATCHES"`
}

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"PORT":                     "8080",
	"LOG_LEVEL":                "info",
	"DATABASE_DRIVER":          DriverMongo,
	"MONGO_URI":                "",
	"MONGO_URI_TEST":           "",
	"MONGO_DATABASE":           "gamehub",
	"DATABASE_URL":             "",
	"DATABASE_URL_TEST":        "",
	"JWT_SECRET":               "",
	"LOGIN_RATE_LIMIT":         1.0,
	"LOGIN_RATE_BURST":         10,
	"IGDB_CLIENT_ID":           "",
	"IGDB_CLIENT_SECRET":       "",
	"IGDB_ACCESS_TOKEN":        "",
	"CATALOG_REFRESH_INTERVAL": "0s",
	"CATALOG_REFRESH_BATCHES":  2,
}

// LoadConfig loads the configuration from a .env file in dir and environment
// variables. Environment variables win over the file.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.DatabaseDriver {
	case DriverMongo:
		if c.MongoConnectionURI() == "" {
			errs = append(errs, errors.New("MONGO_URI (or MONGO_URI_TEST when APP_ENV=test) is required"))
		}
	case DriverPostgres:
		if c.PostgresDSN() == "" {
			errs = append(errs, errors.New("DATABASE_URL (or DATABASE_URL_TEST when APP_ENV=test) is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsTest reports whether the service runs against the test databases.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

// MongoConnectionURI picks the production or test connection string.
func (c *Config) MongoConnectionURI() string {
	if c.IsTest() {
		return c.MongoURITest
	}
	return c.MongoURI
}

// PostgresDSN picks the production or test DSN.
func (c *Config) PostgresDSN() string {
	if c.IsTest() {
		return c.DatabaseURLTest
	}
	return c.DatabaseURL
}

// IGDBEnabled reports whether importer credentials are configured.
func (c *Config) IGDBEnabled() bool {
	return c.IGDBClientID != "" && (c.IGDBAccessToken != "" || c.IGDBClientSecret != "")
}
