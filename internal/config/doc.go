// Package config holds the crawler configuration: defaults, validation,
// and the optional YAML config file that carries login credentials and
// per-run overrides. Configuration flows by dependency injection from
// the CLI layer; nothing in this package is global state.
package config
