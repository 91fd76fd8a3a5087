// Package config loads, normalizes, and validates vrecon configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and validates the worker-pool and encoding
// knobs before anything else runs. Always obtain settings through this
// package so downstream code receives sanitized paths and clear validation
// errors.
package config
