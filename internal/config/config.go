package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrMissingJWTSecret is returned when no signing secret is configured.
// The server refuses to start without one.
var ErrMissingJWTSecret = errors.New("APP_JWT_SECRET must be set")

type Config struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`

	JWTSecret      string   `mapstructure:"jwt_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	Database struct {
		Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
		Path   string `mapstructure:"path"`   // sqlite file path
		DSN    string `mapstructure:"dsn"`    // postgres connection string
	} `mapstructure:"database"`

	Log struct {
		Level string `mapstructure:"level"`
		File  string `mapstructure:"file"`
	} `mapstructure:"log"`

	Frontend struct {
		Enabled        bool   `mapstructure:"enabled"`
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		Dir            string `mapstructure:"dir"`
		CommandTimeout int    `mapstructure:"command_timeout"` // seconds
		MaxRetries     int    `mapstructure:"max_retries"`
		RetryDelay     int    `mapstructure:"retry_delay"` // seconds
	} `mapstructure:"frontend"`
}

// LoadConfig reads configuration from an optional yaml file and from
// APP_-prefixed environment variables, environment winning.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Empty defaults register the keys so AutomaticEnv can see them
	// during Unmarshal.
	v.SetDefault("jwt_secret", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("port", 5000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("allowed_origins", []string{
		"http://0.0.0.0:3000", "http://localhost:3000", "http://127.0.0.1:3000",
	})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "users.db")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.file", "app.log")
	v.SetDefault("frontend.enabled", false)
	v.SetDefault("frontend.host", "0.0.0.0")
	v.SetDefault("frontend.port", 3000)
	v.SetDefault("frontend.dir", "../frontend")
	v.SetDefault("frontend.command_timeout", 30)
	v.SetDefault("frontend.max_retries", 3)
	v.SetDefault("frontend.retry_delay", 1)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
				}
			}
			log.Printf("Config file %s not found, using environment and defaults", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Viper delivers a comma-joined string when the list comes from the
	// environment.
	if len(cfg.AllowedOrigins) == 1 && strings.Contains(cfg.AllowedOrigins[0], ",") {
		cfg.AllowedOrigins = strings.Split(cfg.AllowedOrigins[0], ",")
	}

	return &cfg, nil
}

// Validate enforces the startup invariants. It must pass before any
// request is served.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	return nil
}

// FrontendURL returns the address the companion front-end is reachable at.
func (c *Config) FrontendURL() string {
	return fmt.Sprintf("http://%s:%d", c.Frontend.Host, c.Frontend.Port)
}

// APIURL returns the externally visible address of this API.
func (c *Config) APIURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}
