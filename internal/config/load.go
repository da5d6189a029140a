package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, so
// scheduler.connection_count is read from ASYNCSQL_SCHEDULER_CONNECTION_COUNT.
const EnvPrefix = "ASYNCSQL"

// defaults lists every known key. Registering all of them lets
// AutomaticEnv populate keys that appear in no config file.
var defaults = map[string]any{
	"server.port":                 28960,
	"server.log_level":            "info",
	"database.driver":             "sqlite",
	"database.host":               "",
	"database.port":               0,
	"database.user":               "",
	"database.password":           "",
	"database.name":               "asyncsql.db",
	"scheduler.connection_count":  4,
	"scheduler.dispatch_interval": "10ms",
	"scheduler.max_pending":       0,
	"scheduler.max_query_length":  1024,
	"scheduler.query_timeout":     "0s",
	"error_log.dir":               ".",
	"host.tick_interval":          "50ms",
	"host.result_cache_size":      1024,
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// When configFile is empty, asyncsql.yaml is looked up in the working
// directory and skipped if absent.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("asyncsql")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
