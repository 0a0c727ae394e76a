package report

import (
	"bytes"
	"strings"
	"testing"

	"webp2jpg/internal/models"
)

func TestConsumePlain(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	events := make(chan models.Event, 8)
	events <- models.StatusEvent{Text: "converting"}
	events <- models.ProgressEvent{Fraction: 0}
	events <- models.LogEvent{Text: "[1/1] processing a.webp"}
	events <- models.ProgressEvent{Fraction: 1}
	events <- models.FinishedEvent{Result: models.JobResult{Attempted: 1, Succeeded: 1}}
	close(events)

	result := c.Consume(events)
	if result.Attempted != 1 || result.Succeeded != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	out := buf.String()
	status := strings.Index(out, ">>> converting")
	line := strings.Index(out, "[1/1] processing a.webp")
	if status < 0 || line < 0 {
		t.Fatalf("missing output lines: %q", out)
	}
	if status > line {
		t.Fatalf("events printed out of order: %q", out)
	}
}

func TestConsumeWithBar(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	events := make(chan models.Event, 4)
	events <- models.ProgressEvent{Fraction: 0.5}
	events <- models.LogEvent{Text: "hello"}
	events <- models.ProgressEvent{Fraction: 1.5}
	events <- models.FinishedEvent{Result: models.JobResult{Attempted: 2}}
	close(events)

	result := c.Consume(events)
	if result.Attempted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("log line missing: %q", buf.String())
	}
}
