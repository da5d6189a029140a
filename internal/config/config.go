package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	ErrorLog  ErrorLogConfig  `mapstructure:"error_log" validate:"required"`
	Host      HostConfig      `mapstructure:"host"      validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
// Port also names the per-instance query error log.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig describes the database every scheduler connection opens.
// For sqlite, Name is the database file path and the network fields are ignored.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"   validate:"required,oneof=postgres sqlite"`
	Host     string `mapstructure:"host"     validate:"required_if=Driver postgres"`
	Port     int    `mapstructure:"port"     validate:"gte=0,lt=65536"`
	User     string `mapstructure:"user"     validate:"required_if=Driver postgres"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"     validate:"required"`
}

// SchedulerConfig tunes the query scheduler.
type SchedulerConfig struct {
	ConnectionCount  int           `mapstructure:"connection_count"  validate:"gt=0,lte=256"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval" validate:"gt=0"`
	// MaxPending bounds the number of queued tasks. Zero means unbounded.
	MaxPending     int           `mapstructure:"max_pending"      validate:"gte=0"`
	MaxQueryLength int           `mapstructure:"max_query_length" validate:"gt=0"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"    validate:"gte=0"`
}

// ErrorLogConfig locates the query error log.
type ErrorLogConfig struct {
	Dir string `mapstructure:"dir" validate:"required"`
}

// HostConfig controls the embedded host loop that drives result delivery.
type HostConfig struct {
	TickInterval    time.Duration `mapstructure:"tick_interval"     validate:"gt=0"`
	ResultCacheSize int           `mapstructure:"result_cache_size" validate:"gt=0"`
}
