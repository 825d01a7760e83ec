package dbconfig

import (
	"fmt"
	"net/url"

	"github.com/kelseyhightower/envconfig"
)

// Config holds Postgres connection settings.
type Config struct {
	Host     string `envconfig:"HOST" default:"localhost" yaml:"host"`
	Port     int    `envconfig:"PORT" default:"5432" yaml:"port"`
	User     string `envconfig:"USER" default:"postgres" yaml:"user"`
	Password string `envconfig:"PASSWORD" default:"postgres" yaml:"password"`
	Database string `envconfig:"NAME" default:"draftroom" yaml:"name"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable" yaml:"sslmode"`
}

// NewConfigFromEnv reads DB_* environment variables (with defaults).
func NewConfigFromEnv() (Config, error) {
	var c Config
	if err := envconfig.Process("DB", &c); err != nil {
		return Config{}, fmt.Errorf("failed to read DB_* environment: %w", err)
	}
	return c, nil
}

// DSN returns the Postgres connection URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
