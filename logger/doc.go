// Package logger provides structured logging capabilities.
//
// The logger package builds the application's zap logger. Logs never go to
// stdout, which carries the executed package's output: New writes to a
// writer the caller owns, such as the stderr handed to the CLI entry point or
// a buffer in tests.
//
// Usage:
//
//	logger, err := logger.New("development", "info", os.Stderr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger.Info("installing package", zap.String("package", name))
package logger
