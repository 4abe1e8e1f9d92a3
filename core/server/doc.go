// Package server holds the HTTP server configuration.
package server
