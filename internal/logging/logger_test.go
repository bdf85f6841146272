package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jordanella.com/clan-bot-go/internal/events"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		" WARN ":  LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"fatal":   LogLevelFatal,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLoggerWritesStructuredLines(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Test").AddOutput(&buf)

	logger.ErrorWithContext("tap failed", errors.New("device offline"), map[string]interface{}{"x": 10})

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if line["component"] != "Test" || line["message"] != "tap failed" || line["error"] != "device offline" {
		t.Errorf("unexpected line %v", line)
	}
	if line["level"] != "error" {
		t.Errorf("level = %v, want error", line["level"])
	}
	if line["x"] != float64(10) {
		t.Errorf("context field missing: %v", line)
	}
}

func TestLoggerMinLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Test").AddOutput(&buf).SetMinLevel(LogLevelWarn)

	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("filtered message was written: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warning missing: %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("Test").AddOutput(&buf)

	logger.WithContext(map[string]interface{}{"chore": "train_army"}).Info("started")

	if !strings.Contains(buf.String(), `"chore":"train_army"`) {
		t.Errorf("context not attached: %q", buf.String())
	}
}

func TestFileWriterRotates(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(dir, "bot", 1, 2)
	if err != nil {
		t.Fatalf("NewFileWriter() error = %v", err)
	}
	defer fw.Close()

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 5; i++ {
		if _, err := fw.Write(chunk); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	rotated, _ := filepath.Glob(filepath.Join(dir, "bot_*.log"))
	if len(rotated) != 2 {
		t.Errorf("expected 2 rotated files, got %d: %v", len(rotated), rotated)
	}

	info, err := os.Stat(fw.Path())
	if err != nil {
		t.Fatalf("current log missing: %v", err)
	}
	if info.Size() > 1024*1024 {
		t.Errorf("current log is %d bytes, above the cap", info.Size())
	}
}

func TestEventLoggerWritesEvents(t *testing.T) {
	bus := events.NewEventBus(8)
	el, err := NewEventLogger(bus, t.TempDir())
	if err != nil {
		t.Fatalf("NewEventLogger() error = %v", err)
	}

	bus.Publish(events.NewChoreStartedEvent("run-1", "donate_castle"))
	bus.Stop()
	el.Close()

	data, err := os.ReadFile(el.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "chore.started") || !strings.Contains(string(data), "donate_castle") {
		t.Errorf("event not logged: %q", data)
	}
}

func TestSinkReceivesLines(t *testing.T) {
	var lines []string
	AddSink(func(line string) {
		lines = append(lines, line)
	})

	NewLogger("Sink").Info("sink check")

	for _, line := range lines {
		if strings.HasSuffix(line, "\n") {
			t.Errorf("line keeps its newline: %q", line)
		}
		if strings.Contains(line, "sink check") {
			return
		}
	}
	t.Fatalf("sink never saw the message, got %q", lines)
}

func TestEventLoggerSkipsTemplateLookups(t *testing.T) {
	bus := events.NewEventBus(8)
	el, err := NewEventLogger(bus, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	bus.Publish(events.NewTemplateEvent("menu/bt_army.png", true, 0.93, 1))
	bus.Publish(events.NewChoreStartedEvent("run-2", "go_home"))
	bus.Stop()
	el.Close()
	el.Close()

	data, err := os.ReadFile(el.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "bt_army") {
		t.Errorf("template lookup journaled without Verbose: %q", data)
	}
	if !strings.Contains(string(data), `"run_id":"run-2"`) {
		t.Errorf("chore event missing: %q", data)
	}
}
