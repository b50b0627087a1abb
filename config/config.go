package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of the environment variables that override configuration keys.
const EnvPrefix = "TRYRUN"

// Config represents the application configuration
type Config struct {
	Installer InstallerConfig `mapstructure:"installer" yaml:"installer"`
	Sandbox   SandboxConfig   `mapstructure:"sandbox" yaml:"sandbox"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
}

// InstallerConfig describes the external package manager invocation.
// The final argv is: Command Args... <package> RootFlag <root> ExtraArgs...
type InstallerConfig struct {
	Command   string   `mapstructure:"command" yaml:"command"`
	Args      []string `mapstructure:"args" yaml:"args"`
	RootFlag  string   `mapstructure:"root_flag" yaml:"root_flag"`
	ExtraArgs []string `mapstructure:"extra_args" yaml:"extra_args"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode" yaml:"mode"`
	Level string `mapstructure:"level" yaml:"level"`
}

// ServerConfig holds MCP server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport" yaml:"transport"`
	HTTPPort  int    `mapstructure:"http_port" yaml:"http_port"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("installer.command", "cargo")
	v.SetDefault("installer.args", []string{"install"})
	v.SetDefault("installer.root_flag", "--root")
	v.SetDefault("installer.extra_args", []string{})

	v.SetDefault("sandbox.base_dir", "")
	v.SetDefault("sandbox.prefix", "tryrun-")

	v.SetDefault("logging.mode", "development")
	v.SetDefault("logging.level", "warn")

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.http_port", 8080)
}

// Load loads and validates the application configuration. When path is empty
// tryrun.yaml is searched in the working directory and in $HOME/.config/tryrun,
// a missing file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tryrun")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tryrun")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration after it has been modified in code,
// e.g. by command line overrides.
func (c *Config) Validate() error {
	return c.validate()
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if strings.TrimSpace(c.Installer.Command) == "" {
		return fmt.Errorf("installer.command must not be empty")
	}

	if strings.ContainsAny(c.Sandbox.Prefix, `/\`) {
		return fmt.Errorf("invalid sandbox.prefix: %q, must not contain path separators", c.Sandbox.Prefix)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Server.HTTPPort <= 0 {
		return fmt.Errorf("server.http_port must be positive, got: %d", c.Server.HTTPPort)
	}

	return nil
}
