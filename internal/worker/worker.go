package worker

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"webp2jpg/internal/models"
	"webp2jpg/internal/processor"
)

// Worker processes the items of one job strictly in order and reports
// every step on its event channel.
type Worker struct {
	jobID     string
	outputDir string
	events    chan<- models.Event
	logger    *slog.Logger
}

// NewWorker creates a worker writing into outputDir and reporting on events
func NewWorker(jobID, outputDir string, events chan<- models.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobID:     jobID,
		outputDir: outputDir,
		events:    events,
		logger:    logger.With("job", jobID),
	}
}

// Run converts every item and returns the aggregate result. The final
// FinishedEvent is left to the caller so it can settle its own state first.
func (w *Worker) Run(items []models.InputItem) models.JobResult {
	result := models.JobResult{
		JobID:     w.jobID,
		StartTime: time.Now(),
	}

	proc := processor.New(w.outputDir, w.logger, w.logf)
	total := len(items)

	w.send(models.StatusEvent{Text: "converting"})
	w.logf(">>> job %s started: %d items", w.jobID, total)

	for i, item := range items {
		w.send(models.ProgressEvent{Fraction: float64(i) / float64(total)})
		w.logf("")
		w.logf("[%d/%d] processing %s", i+1, total, filepath.Base(item.Path))

		res := w.processItem(proc, item)
		result.Add(res)

		switch res.Outcome.Status {
		case models.OutcomeSuccess:
			w.logf("done: %s", filepath.Base(item.Path))
		case models.OutcomePartialSuccess:
			w.logf("done with errors: %s (%s)", filepath.Base(item.Path), res.Outcome.Reason)
		default:
			w.logf("failed: %s (%s)", filepath.Base(item.Path), res.Outcome.Reason)
		}

		w.logger.Debug("item processed",
			"path", item.Path,
			"kind", item.Kind.String(),
			"outcome", string(res.Outcome.Status),
			"converted", res.Converted,
			"failed", res.Failed,
			"duration", res.Duration.Round(time.Millisecond))
	}

	result.EndTime = time.Now()
	w.send(models.ProgressEvent{Fraction: 1.0})
	w.summarize(result)

	return result
}

// processItem runs one item, turning a panic into that item's failure
func (w *Worker) processItem(proc *processor.Processor, item models.InputItem) (res models.ItemResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while processing %s: %v", item.Path, r)
			w.logger.Error("recovered from panic", "path", item.Path, "panic", r)
			res = models.ItemResult{
				Item:    item,
				Outcome: models.Outcome{Status: models.OutcomeFailure, Reason: err.Error(), Err: err},
			}
		}
	}()

	return proc.Process(item)
}

func (w *Worker) summarize(result models.JobResult) {
	w.logf("")
	w.logf("=== conversion finished ===")
	w.logf("succeeded: %d", result.Succeeded)
	w.logf("failed: %d", result.Failed)
	w.logf("total: %d", result.Attempted)

	if result.Failed > 0 {
		w.logf("")
		w.logf("failed items:")
		for _, ir := range result.Items {
			if !ir.Outcome.Succeeded() {
				w.logf("  - %s", filepath.Base(ir.Item.Path))
			}
		}
	}

	switch result.Overall() {
	case models.OutcomeSuccess:
		w.send(models.StatusEvent{Text: fmt.Sprintf("done: %d items converted", result.Succeeded)})
	case models.OutcomePartialSuccess:
		w.send(models.StatusEvent{Text: fmt.Sprintf("done: %d items converted, %d failed", result.Succeeded, result.Failed)})
	default:
		w.send(models.StatusEvent{Text: "failed: nothing converted"})
	}
}

func (w *Worker) logf(format string, args ...any) {
	w.send(models.LogEvent{Text: fmt.Sprintf(format, args...)})
}

// send blocks until the consumer has room. Events are never dropped or
// reordered.
func (w *Worker) send(ev models.Event) {
	w.events <- ev
}
