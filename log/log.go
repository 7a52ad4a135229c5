package log

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/motemen/go-loghttp"
)

// Logger is the global logger instance
var Logger *slog.Logger

// InitLogger initializes the global logger.
// The level comes from LOG_LEVEL, or Debug when DEBUG is set.
// Output always goes to stderr: stdout carries the MCP protocol stream.
func InitLogger() {
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}

	if os.Getenv("DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}

	if lv := os.Getenv("LOG_LEVEL"); lv != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(lv)); err == nil {
			opts.Level = level
		}
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	Logger = slog.New(handler)
	slog.SetDefault(Logger)

	loghttp.DefaultTransport.LogRequest = func(req *http.Request) {
		Debug("HTTP request",
			"method", req.Method,
			"url", req.URL.String(),
		)
	}

	loghttp.DefaultTransport.LogResponse = func(resp *http.Response) {
		Debug("HTTP response",
			"method", resp.Request.Method,
			"url", resp.Request.URL.String(),
			"status", resp.Status,
			"status_code", resp.StatusCode,
		)
	}
}

// init initializes the logger when the package is imported
func init() {
	InitLogger()
}

// Configure resets the logger level from loaded configuration.
// InitLogger runs before a .env file is read, so values that arrive
// through one are applied here. An explicit level wins over the debug
// flag, matching InitLogger.
func Configure(level string, debug bool) {
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelInfo,
	}

	if debug {
		opts.Level = slog.LevelDebug
	}

	if level != "" {
		var lv slog.Level
		if err := lv.UnmarshalText([]byte(level)); err == nil {
			opts.Level = lv
		}
	}

	Logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(Logger)
}

// Transport returns an HTTP transport that logs requests and responses
// at debug level.
func Transport() http.RoundTripper {
	return loghttp.DefaultTransport
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
