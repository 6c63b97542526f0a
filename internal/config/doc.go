// Package config loads, normalizes, and validates prodledger configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PRODLEDGER_SHEETS_CREDENTIALS. The Config type centralizes every knob the
// stores, ingesters, and CLI need, so data files, import policies, and the
// Google Sheets source are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical policy names, and clear validation errors.
package config
