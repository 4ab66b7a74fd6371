// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/moksh-codedeveloper/E-Commerce-app-BE/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup installs a JSON slog handler as the default logger. When file
// logging is enabled the output is rotated with lumberjack and mirrored
// to stdout.
func Setup(cfg config.LogConfig) {
	var out io.Writer = os.Stdout
	if cfg.ToFile {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		})
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
