package cmd

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const logLevelEnv = "NODEPICK_LOG_LEVEL"

func logLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(logLevelEnv))) {
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

func initLogging(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel()})))
}

// initSessionLogging moves logging off the terminal while the picker owns it.
// Logs go to path, or nowhere when path is empty.
func initSessionLogging(path string) (func(), error) {
	if path == "" {
		initLogging(io.Discard)
		return func() { initLogging(os.Stderr) }, nil
	}
	f, err := tea.LogToFile(path, "nodepick")
	if err != nil {
		return nil, err
	}
	initLogging(f)
	return func() {
		log.SetOutput(os.Stderr)
		initLogging(os.Stderr)
		_ = f.Close()
	}, nil
}
