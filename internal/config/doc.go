// Package config loads, normalizes, and validates osmworld configuration.
//
// It supplies defaults for every path, tool command line, and pipeline knob,
// expands user paths (including tilde shortcuts), and overlays a TOML file on
// top of the defaults so values written by the operator are never replaced.
// Region boundaries are a plain list of file names; nothing in the file is
// evaluated.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
