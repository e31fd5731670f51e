// Package logging builds the zap loggers used across dupsweep.
//
// Console output goes to stderr in a compact human format; when a log file is
// configured, records are additionally written to it as JSON.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel keeps routine runs quiet: only warnings reach the terminal
const DefaultLevel = "warn"

// Options configures a logger
type Options struct {
	Level   string // debug, info, warn, error
	File    string // optional JSON log file
	Verbose bool   // forces debug level
	NoColor bool
	RunID   string
	Output  io.Writer // console sink, defaults to stderr
}

// NewRunID returns a fresh identifier attached to every record of a run
func NewRunID() string {
	return uuid.NewString()
}

// New creates a logger and a cleanup func that flushes and closes sinks
func New(opts Options) (*zap.Logger, func(), error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleCfg.CallerKey = zapcore.OmitKey
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.NoColor {
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(out), level),
	}

	var file *os.File
	if opts.File != "" {
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		// The file always records debug detail, independent of the console level
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	if opts.RunID != "" {
		logger = logger.With(zap.String("run_id", opts.RunID))
	}

	cleanup := func() {
		_ = logger.Sync()
		if file != nil {
			_ = file.Close()
		}
	}

	return logger, cleanup, nil
}

func parseLevel(text string) (zapcore.Level, error) {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		text = DefaultLevel
	}
	level, err := zapcore.ParseLevel(text)
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", text, err)
	}
	return level, nil
}
