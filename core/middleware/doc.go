// Package middleware groups the HTTP middlewares: rayid assigns a
// correlation id to every request, auth enforces the configured API key.
package middleware
