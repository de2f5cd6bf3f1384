package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitLoggingLevelFromEnv(t *testing.T) {
	cases := []struct {
		name    string
		env     string
		debugOn bool
		infoOn  bool
		warnOn  bool
		errorOn bool
	}{
		{name: "debug", env: "debug", debugOn: true, infoOn: true, warnOn: true, errorOn: true},
		{name: "warn", env: "WARN", debugOn: false, infoOn: false, warnOn: true, errorOn: true},
		{name: "error", env: "error", debugOn: false, infoOn: false, warnOn: false, errorOn: true},
		{name: "default", env: "", debugOn: false, infoOn: true, warnOn: true, errorOn: true},
		{name: "unknown", env: "loud", debugOn: false, infoOn: true, warnOn: true, errorOn: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(logLevelEnv, tc.env)
			initLogging(io.Discard)
			h := slog.Default().Handler()
			ctx := context.Background()
			if got := h.Enabled(ctx, slog.LevelDebug); got != tc.debugOn {
				t.Fatalf("debug enabled=%v want %v", got, tc.debugOn)
			}
			if got := h.Enabled(ctx, slog.LevelInfo); got != tc.infoOn {
				t.Fatalf("info enabled=%v want %v", got, tc.infoOn)
			}
			if got := h.Enabled(ctx, slog.LevelWarn); got != tc.warnOn {
				t.Fatalf("warn enabled=%v want %v", got, tc.warnOn)
			}
			if got := h.Enabled(ctx, slog.LevelError); got != tc.errorOn {
				t.Fatalf("error enabled=%v want %v", got, tc.errorOn)
			}
		})
	}
}

func TestSessionLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodepick.log")

	restore, err := initSessionLogging(path)
	if err != nil {
		t.Fatalf("initSessionLogging: %v", err)
	}
	slog.Info("inside session")
	restore()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "inside session") {
		t.Fatalf("log file missing message: %q", data)
	}
}

func TestSessionLoggingDiscardedWithoutFile(t *testing.T) {
	restore, err := initSessionLogging("")
	if err != nil {
		t.Fatalf("initSessionLogging: %v", err)
	}
	slog.Error("dropped")
	restore()
}
