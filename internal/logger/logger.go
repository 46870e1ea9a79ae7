// Package logger provides process-wide logging for ragline.
//
// The printf-style helpers (Debug, Info, Warn, Error) keep the CLI output
// terse: "[LEVEL] message". Long-running commands such as serve switch to
// JSON with SetFormat and use L for structured fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output formats accepted by SetFormat.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu      sync.RWMutex
	level             = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	output  io.Writer = os.Stderr
	format            = FormatConsole
	base    *zap.Logger
	verbose bool
)

func init() {
	rebuild()
}

// rebuild constructs the zap logger from the current settings. Caller holds mu or is init.
func rebuild() {
	var enc zapcore.Encoder
	if format == FormatJSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(cfg)
	} else {
		enc = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			LineEnding:       zapcore.DefaultLineEnding,
			ConsoleSeparator: " ",
			EncodeLevel: func(l zapcore.Level, pe zapcore.PrimitiveArrayEncoder) {
				pe.AppendString("[" + l.CapitalString() + "]")
			},
			EncodeDuration: zapcore.StringDurationEncoder,
		})
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(output), level)
	base = zap.New(core)
}

// SetVerbose enables or disables debug logging.
// Disabling restores the quiet default, which only shows warnings.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level by name: debug, info, warn or error.
func SetLevel(name string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(name)))); err != nil {
		return fmt.Errorf("invalid log level %q", name)
	}
	mu.Lock()
	defer mu.Unlock()
	level.SetLevel(l)
	verbose = l == zapcore.DebugLevel
	return nil
}

// SetFormat selects console or json output.
func SetFormat(f string) error {
	if f != FormatConsole && f != FormatJSON {
		return fmt.Errorf("invalid log format %q", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
	return nil
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// L returns the structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) {
	L().Sugar().Debugf(format, args...)
}

// Info logs a formatted informational message.
func Info(format string, args ...any) {
	L().Sugar().Infof(format, args...)
}

// Warn logs a formatted warning.
func Warn(format string, args ...any) {
	L().Sugar().Warnf(format, args...)
}

// Error logs a formatted error.
func Error(format string, args ...any) {
	L().Sugar().Errorf(format, args...)
}

// Section prints a section header when debug logging is on.
func Section(name string) {
	if !level.Enabled(zapcore.DebugLevel) {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}
