// Package config loads, normalizes, and validates treeline configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_REGION and TREELINE_ROLE_ARN. The Config type centralizes every knob the
// daemon and CLI need, from dataset schema through training hyperparameters.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
