// Package config provides the monitored-app server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of loaded values
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// MONITORED_* environment variables and command-line flags.
package config
