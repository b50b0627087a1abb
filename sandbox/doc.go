// Package sandbox provides the per invocation temporary directory tree.
//
// A Sandbox scopes both the installation and the run of a package:
//
//	<root>/
//	  bin/   executables written by the package manager
//	  cwd/   working directory of the executed package
//
// The Manager only creates the root. bin/ appears as a side effect of the
// install and cwd/ is created right before the run. The whole tree is removed
// when the sandbox is released, whatever happened in between.
//
// Usage:
//
//	manager := sandbox.NewManager(logger, sandbox.Config{Prefix: "tryrun-"})
//	err := manager.Use(id, func(sb *sandbox.Sandbox) error {
//	    return install(sb.Root())
//	})
package sandbox
