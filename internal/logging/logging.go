// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelAudit sits between info and warn. It marks feature and scenario
// banners and the run summary.
const LevelAudit = slog.Level(2)

// ParseLevel maps a config level name to a slog level. Unknown names are info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "audit":
		return LevelAudit
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler returns the text handler used by every binary.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelAudit {
					a.Value = slog.StringValue("AUDIT")
				}
			}
			return a
		},
	})
}

// Setup installs a default logger writing to stdout and a rotating file.
// The returned closer flushes the file.
func Setup(level, filename string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	slog.SetDefault(slog.New(NewHandler(io.MultiWriter(os.Stdout, logWriter), ParseLevel(level))))
	return logWriter, nil
}

// Audit logs msg at LevelAudit on the default logger.
func Audit(ctx context.Context, msg string, args ...any) {
	slog.Default().Log(ctx, LevelAudit, msg, args...)
}
