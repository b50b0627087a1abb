// Package main is the entry point for tryrun.
//
// tryrun installs a package with an external package manager (cargo by
// default) into a fresh temporary root, runs the executable named after the
// package once in its own working directory and removes everything again:
//
//	tryrun run ripgrep --version
//
// The exit code of tryrun is the exit code of the executed package. When the
// pipeline fails before the package runs, tryrun prints the failing stage and
// exits with 101. The serve command exposes the same workflow as an MCP tool.
//
// The application uses kingpin for the command line, Uber's fx for dependency
// wiring, zap for structured logging and viper for configuration.
package main
