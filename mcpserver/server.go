// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the install, run once, discard pipeline as the
// run_package tool. It uses the mark3labs/mcp-go library to handle the
// protocol details.
package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/tryrun/config"
	"github.com/isdmx/tryrun/pipeline"
)

// PackageRunner is the part of the pipeline the server needs.
type PackageRunner interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Outcome, error)
}

// RunResult is the JSON document returned by the run_package tool.
type RunResult struct {
	InvocationID string `json:"invocation_id"`
	ExitCode     int    `json:"exit_code"`
	Signal       int    `json:"signal,omitempty"`
	Stdout       string `json:"stdout"`
	Stderr       string `json:"stderr"`
	// WorkdirTar is the base64 encoded tar.gz of the working directory.
	WorkdirTar string `json:"workdir_tar,omitempty"`
}

// maxWorkdirArchiveBytes caps the archive returned by run_package.
const maxWorkdirArchiveBytes = 20 * 1024 * 1024

// MCPServer represents the MCP server
type MCPServer struct {
	config    *config.Config
	logger    *zap.Logger
	runner    PackageRunner
	mcpServer *server.MCPServer
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, runner *pipeline.Pipeline) (*MCPServer, error) {
	return NewWithRunner(cfg, logger, runner), nil
}

// NewWithRunner creates a new MCPServer on top of any PackageRunner.
func NewWithRunner(cfg *config.Config, logger *zap.Logger, runner PackageRunner) *MCPServer {
	s := &MCPServer{
		config: cfg,
		logger: logger,
		runner: runner,
	}

	logger.Info("configuration loaded",
		zap.String("server.transport", cfg.Server.Transport),
		zap.Int("server.http_port", cfg.Server.HTTPPort),
		zap.String("installer.command", cfg.Installer.Command),
		zap.Strings("installer.args", cfg.Installer.Args),
		zap.String("installer.root_flag", cfg.Installer.RootFlag),
		zap.Strings("installer.extra_args", cfg.Installer.ExtraArgs),
		zap.String("sandbox.base_dir", cfg.Sandbox.BaseDir),
		zap.String("sandbox.prefix", cfg.Sandbox.Prefix),
	)

	s.mcpServer = server.NewMCPServer("tryrun", "Install a package, run it once and discard it")
	s.registerRunPackageTool()

	return s
}

// registerRunPackageTool registers the run_package tool
func (s *MCPServer) registerRunPackageTool() {
	tool := mcp.Tool{
		Name:        "run_package",
		Description: "Install a package into a temporary root, run its same-named executable once with the given arguments and discard everything",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"package": map[string]any{
					"type":        "string",
					"description": "Package name, e.g. ripgrep",
					"pattern":     "^[A-Za-z0-9][A-Za-z0-9_-]*$",
				},
				"args": map[string]any{
					"type":        "array",
					"description": "Arguments passed verbatim to the executable",
					"items":       map[string]any{"type": "string"},
				},
				"return_workdir": map[string]any{
					"type":        "boolean",
					"description": "Return the files the executable wrote to its working directory as a base64 tar.gz",
				},
			},
			Required: []string{"package"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleRunPackage)
}

// handleRunPackage handles the run_package tool
func (s *MCPServer) handleRunPackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := request.RequireString("package")
	if err != nil {
		return nil, fmt.Errorf("package parameter is required: %w", err)
	}
	args := request.GetStringSlice("args", nil)
	returnWorkdir := request.GetBool("return_workdir", false)

	s.logger.Info("package run requested", zap.String("package", pkg), zap.Int("args", len(args)))

	var stdout, stderr bytes.Buffer
	outcome, err := s.runner.Run(ctx, pipeline.Request{
		Package: pkg,
		Args:    args,
		Stdin:   strings.NewReader(""),
		Stdout:  &stdout,
		Stderr:  &stderr,

		ArchiveWorkdir: returnWorkdir,
		ArchiveLimit:   maxWorkdirArchiveBytes,
	})
	if err != nil {
		s.logger.Error("package run failed",
			zap.Error(err),
			zap.String("package", pkg),
			zap.String("invocation_id", outcome.InvocationID))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf("Run failed: %v\n%s", err, stderr.String()),
				},
			},
			IsError: true,
		}, nil
	}

	s.logger.Info("package run completed",
		zap.String("package", pkg),
		zap.String("invocation_id", outcome.InvocationID),
		zap.Int("exit_code", outcome.Status.Code),
		zap.Int("stdout_len", stdout.Len()),
		zap.Int("stderr_len", stderr.Len()))

	resultJSON, err := json.Marshal(RunResult{
		InvocationID: outcome.InvocationID,
		ExitCode:     outcome.Status.Code,
		Signal:       outcome.Status.Signal,
		Stdout:       stdout.String(),
		Stderr:       stderr.String(),
		WorkdirTar:   base64.StdEncoding.EncodeToString(outcome.WorkdirTar),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(resultJSON),
			},
		},
	}, nil
}

// ServeStdio serves MCP over stdin/stdout until ctx is canceled
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio")
	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

// NewHTTPServer returns the streamable HTTP transport for the server
func (s *MCPServer) NewHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// ServeHTTP starts the server on HTTP and blocks until it is shut down
func (s *MCPServer) ServeHTTP(httpServer *server.StreamableHTTPServer) error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying mcp-go server, e.g. to mount it on a
// custom transport.
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
