// Package config loads settings from defaults, an optional config.yaml, a
// .env file and FAROS_-prefixed environment variables, in increasing order
// of precedence, and validates the result before the server starts.
package config
