// Package config loads relay configuration.
//
// Values are resolved in increasing priority:
//   - struct defaults
//   - WEB_COMMAND_* environment variables
//   - an optional YAML (.yaml, .yml) or TOML (.toml) file
//   - command-line flags explicitly set by the user
//
// The last step is applied by the command itself; Validate must run after
// it and before any server resource is created.
package config
