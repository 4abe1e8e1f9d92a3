// Package logger provides structured logging based on Zap.
//
// It produces a configured logger instance supporting json (production)
// and console (development) encodings, and integrates with the Fiber web
// framework: the WithRayID helper extracts the request RayID from a Fiber
// context and attaches it to the log entry so all logs for one request
// can be correlated.
package logger
