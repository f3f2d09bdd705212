package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"info", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"trace", LevelTrace},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "text", &buf)

	logger.Debug("hidden")
	logger.Info("shown", "neuron", "L0N0")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "neuron=L0N0") {
		t.Errorf("expected info message with attrs, got: %s", out)
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", "", &buf)

	logger.Log(context.Background(), LevelTrace, "token detail")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE level label, got: %s", buf.String())
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger("info", "text", &buf), "store")
	logger.Info("loaded")

	if !strings.Contains(buf.String(), "component=store") {
		t.Errorf("expected component attr, got: %s", buf.String())
	}

	// nil is tolerated
	Component(nil, "x").Info("dropped")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("debug", "JSON", &buf)

	logger.Debug("dataset loaded", "model", "pythia70m", "neurons", 2)

	out := buf.String()
	for _, want := range []string{`"msg":"dataset loaded"`, `"model":"pythia70m"`, `"neurons":2`, `"level":"DEBUG"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON output missing %s: %s", want, out)
		}
	}
}
