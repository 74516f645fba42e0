// Package logger provides structured logging for reqkit using zerolog.
//
// It supports JSON and console output, per-logger levels and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("httpclient")
//	log.Debug("request sent", logger.Fields("method", "GET", "status", 200))
package logger
