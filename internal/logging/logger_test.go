package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/melody-ding/go-vidcompose/internal/config"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	off := false
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf, Color: &off})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With(FieldRunID, "abc").Info("rendering to output", "path", "out dir/x.mp4", "clips", 3, "elapsed", 1500*time.Millisecond)
	logger.Debug("hidden")

	line := buf.String()
	for _, want := range []string{"INFO", "rendering to output", "run_id=abc", `path="out dir/x.mp4"`, "clips=3", "elapsed=1.5s"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record should be filtered: %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("colour disabled but found escape codes: %q", line)
	}
}

func TestConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.WithGroup("encode").Debug("args", "count", 12)
	if !strings.Contains(buf.String(), "encode.count=12") {
		t.Fatalf("expected grouped key, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("skipped")
	logger.Warn("duration mismatch", "want", 6.0)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "duration mismatch" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigVerboseLowersLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Verbose = true
	logger, err := NewFromConfig(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Enabled(t.Context(), -4) {
		t.Fatal("verbose config should enable debug records")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "DEBUG",
		"WARNING": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"other":   "INFO",
	}
	for in, want := range tests {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
