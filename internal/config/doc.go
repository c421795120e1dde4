// Package config loads, validates, and normalizes Cadence configuration.
//
// Configuration lives in a TOML file (default ~/.config/cadence/config.toml).
// Load applies defaults, expands ~ in path fields, and validates the result;
// callers receive a Config whose path fields are absolute. A sample
// configuration is embedded for `cadence config init`.
package config
