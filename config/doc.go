// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and TRYRUN_* environment variables. It covers
// the package manager invocation, sandbox placement, logging and the MCP
// server transport.
//
// Usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Installer: %s\n", cfg.Installer.Command)
package config
