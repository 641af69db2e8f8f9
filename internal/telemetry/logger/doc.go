// Package logger provides structured logging for indy-cli.
//
// This package wraps log/slog:
//
//   - logger.go: Logger interface, construction, global level and default logger
//   - config.go: logger config file (--logger-config, init-logger)
//   - context.go: context propagation with command IDs
//   - redact.go: redaction of wallet keys, seeds and credentials
//
// The CLI writes its own output to stdout; logs go to stderr or a file and
// stay at warn level unless a logger config asks for more.
package logger
