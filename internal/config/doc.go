// Package config loads the gallery server configuration from the
// environment (with optional .env support) and validates the directories
// the server depends on.
package config
