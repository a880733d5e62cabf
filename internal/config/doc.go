// Package config loads, normalizes, and validates reelpress configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as BOX_PRIMARY_KEY and OPENROUTER_API_KEY. The
// Config type centralizes every knob the webhook server, the worker, and the
// CLI need so credentials and bucket names are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
