// Package confloader loads configuration from layered sources.
//
// It uses koanf underneath. Sources, highest priority first:
//
//  1. Overrides (command-line flags)
//  2. Environment variables (MONITORED_ prefix)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct (defaults)
//
// Watcher reports changes to the configuration file so selected settings
// can be reloaded without a restart.
package confloader
