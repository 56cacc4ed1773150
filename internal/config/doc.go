// Package config loads, normalizes, and validates bookscore configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as BOOKSCORE_API_BASE_URL and
// BOOKSCORE_API_TOKEN. The Config type centralizes every knob the CLI needs so
// the scoring backend location, polling cadence, and notification settings are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
