package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsole_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(NewConsole(ConsoleParams{Level: "warn", Output: &buf}))
	t.Cleanup(func() { Init() })

	Info("hidden")
	Warn("converted project", "project", "CB", "nodes", 12)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message written at warn level:\n%s", out)
	}
	if !strings.Contains(out, "converted project") || !strings.Contains(out, "project=CB") {
		t.Errorf("Expected structured warn line, got:\n%s", out)
	}
}

func TestParseLevel_Default(t *testing.T) {
	if got := ParseLevel("nonsense"); got != ParseLevel("info") {
		t.Errorf("Expected info level for unknown name, got %v", got)
	}
	if got := ParseLevel(" DEBUG "); got != ParseLevel("debug") {
		t.Errorf("Expected debug level, got %v", got)
	}
}

func TestUninitialized_NoPanic(t *testing.T) {
	Init()
	Info("dropped")
	Errorf("dropped %d", 1)
}
