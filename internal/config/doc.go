// Package config loads, normalizes, and validates nstoolkit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the NSTOOLKIT_PROCESSOR
// environment override. The Config type centralizes the processor binary,
// discovery policy, extension hints, history storage, and logging knobs so the
// CLI and MCP server resolve them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
