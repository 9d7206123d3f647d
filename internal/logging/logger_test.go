package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = NewComponentLogger(logger, "fetcher")
	logger.Info("fetched candidates", String(FieldPerson, "Jane Doe"), Int("count", 3))

	line := buf.String()
	if !strings.Contains(line, "[fetcher]") {
		t.Fatalf("expected component tag in output, got %q", line)
	}
	if !strings.Contains(line, `person="Jane Doe"`) {
		t.Fatalf("expected quoted person attr, got %q", line)
	}
	if !strings.Contains(line, "count=3") {
		t.Fatalf("expected count attr, got %q", line)
	}
}

func TestConsoleHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be suppressed, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "WRN") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestJSONHandlerUsesCanonicalKeys(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, levelVar, false))

	logger.Error("lookup failed", String(FieldSource, "tmdb"), Int(FieldStatusCode, 503))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload["msg"] != "lookup failed" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload[FieldSource] != "tmdb" {
		t.Fatalf("expected source field, got %v", payload[FieldSource])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
