// Package config loads asyncsql settings from an optional YAML file and
// ASYNCSQL_-prefixed environment variables, applies defaults and validates
// the result before any connection is opened.
package config
