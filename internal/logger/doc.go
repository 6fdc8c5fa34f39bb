// Package logger wraps zap with a global sugared logger, level parsing and
// context helpers so request-scoped fields travel with the context.
package logger
