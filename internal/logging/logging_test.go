package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"audit":   LevelAudit,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAuditLabelAndFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, LevelAudit))

	logger.Info("hidden")
	logger.Log(context.Background(), LevelAudit, "Scenario: Login", "status", "passed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at audit level: %q", out)
	}
	if !strings.Contains(out, "level=AUDIT") || !strings.Contains(out, "status=passed") {
		t.Fatalf("audit line missing: %q", out)
	}
}

func TestSetupCreatesLogDir(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	file := filepath.Join(t.TempDir(), "nested", "e2e.log")
	closer, err := Setup("audit", file)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	Audit(context.Background(), "run finished")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !slog.Default().Enabled(context.Background(), LevelAudit) {
		t.Fatal("audit level should be enabled")
	}
	if slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info level should be disabled")
	}
}
