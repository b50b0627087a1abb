package logger

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/isdmx/tryrun/config"
)

// NewFromConfig creates the application logger from the logging section of
// cfg, writing to w.
func NewFromConfig(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	return New(cfg.Logging.Mode, cfg.Logging.Level, w)
}

// New creates a logger writing to w. Stdout belongs to the executed
// package, so callers pass stderr or a capture buffer, never stdout.
//
// Both modes share the encoder settings of zap's presets: development is a
// colored console encoder without stacktraces, production is JSON with an
// ISO8601 "timestamp".
func New(mode, level string, w io.Writer) (*zap.Logger, error) {
	var (
		encoder zapcore.Encoder
		opts    []zap.Option
	)

	switch mode {
	case "development":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
		opts = append(opts, zap.Development())
	case "production":
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "timestamp"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid logging mode: %s, must be 'production' or 'development'", mode)
	}

	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level: %s, must be one of 'debug', 'info', 'warn', 'error', 'dpanic', 'panic', 'fatal'", level)
	}

	sink := zapcore.Lock(zapcore.AddSync(w))
	opts = append(opts, zap.AddCaller(), zap.ErrorOutput(sink))

	return zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(logLevel)), opts...), nil
}
