// Package config loads and validates run configuration.
//
// Sources are applied in order: defaults, YAML file, FE_* environment
// variables, then dot-path overrides from the command line.
package config
