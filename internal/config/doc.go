// Package config handles configuration loading and merging for shopkit.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--theme, --no-color, --debug, --fail-level, ...)
//  2. Environment variables (SHOPKIT_THEME, SHOPKIT_NO_COLOR, NO_COLOR, SHOPKIT_DEBUG, SHOPKIT_TELEMETRY, SHOPKIT_STORE)
//  3. YAML config file (.shopkit.yaml in the working directory or $XDG_CONFIG_HOME/shopkit/.shopkit.yaml)
//  4. Hardcoded defaults
//
// Resolution validates every value once. All problems are reported together
// in a single *Error before any command runs.
package config
