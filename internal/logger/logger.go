// Package logger provides verbose logging for the InsightGen CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to help users follow the job lifecycle.
// When a log file is configured, Info and above are also written there
// as JSON, with size-based rotation.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	rotator *lumberjack.Logger
	log     = zap.NewNop()
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	rebuild()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetFile mirrors Info and above to a rotated JSON log file.
// An empty path disables file logging.
func SetFile(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		if err := rotator.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		rotator = nil
	}
	if path != "" {
		rotator = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
	}
	rebuild()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	_ = log.Sync() //nolint:errcheck // stderr sync fails on some terminals
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	rebuild()
	return err
}

// rebuild recreates the zap logger from the current settings (caller must hold lock).
func rebuild() {
	var cores []zapcore.Core

	if verbose {
		consoleCfg := zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "message",
			EncodeLevel:      bracketLevelEncoder,
			ConsoleSeparator: " ",
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(zapcore.AddSync(output)),
			zap.DebugLevel,
		))
	}

	if rotator != nil {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "timestamp"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.MessageKey = "message"
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(rotator),
			zap.InfoLevel,
		))
	}

	if len(cores) == 0 {
		log = zap.NewNop()
		return
	}
	log = zap.New(zapcore.NewTee(cores...))
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug(fmt.Sprintf(format, args...))
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn(fmt.Sprintf(format, args...))
}

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error(fmt.Sprintf(format, args...))
}

// Event records a structured Info entry with key/value pairs, e.g.
// Event("job submitted", "job_id", id).
func Event(msg string, keysAndValues ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Sugar().Infow(msg, keysAndValues...)
}
