// Package config loads liststore settings from defaults, an optional YAML
// file and LISTSTORE_ environment variables, in that order of precedence.
//
// Environment keys use a double underscore for nesting:
//
//	LISTSTORE_API__BASE_URL=https://monitor.example.com/api/0/
//	LISTSTORE_OBSERVE__LOGGING__LEVEL=debug
//
// Secret values (api.token, api.jwt.secret) may reference the environment
// as ${VAR}; a missing variable is an error rather than an empty string.
package config
