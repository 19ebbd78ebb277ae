// Package config defines the engine configuration structure and loads it
// from an optional YAML file plus environment variables.
package config
