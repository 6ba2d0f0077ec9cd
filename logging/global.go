// Package logging wraps log/slog with a process-global logger and a
// structured request-logging middleware.
package logging

import (
	"context"
	"log/slog"
	"os"
)

type LoggingService struct {
	Logger *slog.Logger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger instance.
func InitLogger(logDir string, level string) error {
	logger, err := SetupLogger(logDir, level)
	if err != nil {
		return err
	}
	DefaultLoggingService = &LoggingService{Logger: logger}
	slog.SetDefault(logger)
	return nil
}

// write logs through the global logger, falling back to a console
// logger when InitLogger has not run yet (early startup, tests).
func write(level slog.Level, msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		fallback.Log(context.Background(), level, msg, args...)
		return
	}
	DefaultLoggingService.Logger.Log(context.Background(), level, msg, args...)
}

func Info(msg string, args ...any)  { write(slog.LevelInfo, msg, args...) }
func Warn(msg string, args ...any)  { write(slog.LevelWarn, msg, args...) }
func Error(msg string, args ...any) { write(slog.LevelError, msg, args...) }
func Debug(msg string, args ...any) { write(slog.LevelDebug, msg, args...) }
