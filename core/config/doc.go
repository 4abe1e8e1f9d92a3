// Package config loads application configuration from environment variables
// and an optional .env file via Viper.
//
// Each package owns its partial Config struct; this package composes them
// and binds defaults declared in struct tags, so SERVER_PORT=9090 overrides
// server.port and so on.
package config
