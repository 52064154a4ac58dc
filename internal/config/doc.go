// Package config loads the snake client configuration from YAML.
//
// ${VAR} references are expanded from the environment before parsing.
// Missing optional fields receive defaults; Validate reports the first
// invalid field by its dotted path.
package config
