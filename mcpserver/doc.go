// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the install, run once, discard pipeline as the
// run_package tool so MCP clients can try out a package without installing it
// permanently. Every tool call gets its own sandbox, the executable's output is
// captured and returned as JSON together with its exit code.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, pipeline)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio(ctx)
package mcpserver
