package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
)

// Setup installs the default slog logger: a text handler on the console
// stream and, when configured, a second one appending to a log file.
func Setup(cfg config.LoggerConfigs) error {
	var handlers []slog.Handler

	var console io.Writer = os.Stderr
	if strings.ToLower(cfg.ConsoleOutput) == "stdout" {
		console = os.Stdout
	}

	consoleOpts := &slog.HandlerOptions{Level: ParseLevel(cfg.ConsoleLevel)}
	handlers = append(handlers, slog.NewTextHandler(console, consoleOpts))

	if cfg.FileOutput != "" {
		logFile, err := os.OpenFile(cfg.FileOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		fileOpts := &slog.HandlerOptions{
			Level: ParseLevel(cfg.FileLevel), AddSource: true,
		}
		handlers = append(handlers, slog.NewTextHandler(logFile, fileOpts))
	}

	slog.SetDefault(slog.New(NewMultiHandler(handlers...)))

	return nil
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
