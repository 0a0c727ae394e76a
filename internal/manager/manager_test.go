package manager

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chai2010/webp"

	"webp2jpg/internal/models"
)

func TestStartRejectsSecondJob(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")
	items := []models.InputItem{{Path: writeWebP(t, src, "a.webp"), Kind: models.KindSingleImage}}

	// Unbuffered: the worker blocks on its first event until we read it
	c := newController(t, 0)

	events, err := c.Start(items, out)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if c.State() != models.StateRunning {
		t.Fatalf("expected running state, got %s", c.State())
	}

	if _, err := c.Start(items, out); !errors.Is(err, models.ErrConcurrentJob) {
		t.Fatalf("expected ErrConcurrentJob, got %v", err)
	}
	if c.State() != models.StateRunning {
		t.Fatalf("rejected start must not change state, got %s", c.State())
	}

	result := drain(t, events)
	if result.Succeeded != 1 {
		t.Fatalf("running job was disturbed: %+v", result)
	}
	if result.JobID == "" {
		t.Fatalf("job id missing")
	}
	if c.State() != models.StateIdle {
		t.Fatalf("expected idle state after finish, got %s", c.State())
	}

	// The controller accepts a new job once idle
	events, err = c.Start(items, out)
	if err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	drain(t, events)
}

func TestStartCreatesOutputDirectory(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "a", "b", "c")
	items := []models.InputItem{{Path: writeWebP(t, src, "pic.webp"), Kind: models.KindSingleImage}}

	c := newController(t, DefaultEventBuffer)
	events, err := c.Start(items, out)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	drain(t, events)

	if _, err := os.Stat(filepath.Join(out, "pic.jpg")); err != nil {
		t.Fatalf("expected converted file: %v", err)
	}
}

func TestStartFailsWhenOutputDirectoryCannotBeCreated(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	items := []models.InputItem{{Path: filepath.Join(dir, "a.webp"), Kind: models.KindSingleImage}}

	c := newController(t, DefaultEventBuffer)
	_, err := c.Start(items, filepath.Join(blocker, "out"))

	var dirErr *models.OutputDirError
	if !errors.As(err, &dirErr) {
		t.Fatalf("expected OutputDirError, got %v", err)
	}
	if c.State() != models.StateIdle {
		t.Fatalf("state should stay idle, got %s", c.State())
	}
}

func TestStartRejectsEmptyItemList(t *testing.T) {
	c := newController(t, DefaultEventBuffer)
	if _, err := c.Start(nil, t.TempDir()); !errors.Is(err, models.ErrNoInputItems) {
		t.Fatalf("expected ErrNoInputItems, got %v", err)
	}
}

func TestEventsEndWithFinished(t *testing.T) {
	src := t.TempDir()
	items := []models.InputItem{
		{Path: writeWebP(t, src, "one.webp"), Kind: models.KindSingleImage},
		{Path: filepath.Join(src, "missing.webp"), Kind: models.KindSingleImage},
	}

	c := newController(t, DefaultEventBuffer)
	events, err := c.Start(items, t.TempDir())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var last models.Event
	finished := 0
	for ev := range events {
		if _, ok := ev.(models.FinishedEvent); ok {
			finished++
		}
		last = ev
	}

	if finished != 1 {
		t.Fatalf("expected exactly one FinishedEvent, got %d", finished)
	}
	fin, ok := last.(models.FinishedEvent)
	if !ok {
		t.Fatalf("last event should be FinishedEvent, got %T", last)
	}
	if fin.Result.Attempted != 2 || fin.Result.Succeeded != 1 || fin.Result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", fin.Result)
	}
}

func newController(t *testing.T, buffer int) *Controller {
	t.Helper()

	c, err := NewController(nil, buffer)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func drain(t *testing.T, events <-chan models.Event) models.JobResult {
	t.Helper()

	timeout := time.After(30 * time.Second)
	var result models.JobResult
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return result
			}
			if fin, ok := ev.(models.FinishedEvent); ok {
				result = fin.Result
			}
		case <-timeout:
			t.Fatalf("timed out waiting for job to finish")
		}
	}
}

func writeWebP(t *testing.T, dir, name string) string {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("failed to encode webp: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
