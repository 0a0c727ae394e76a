package manager

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"webp2jpg/internal/models"
	"webp2jpg/internal/worker"
)

// DefaultEventBuffer is the event channel capacity used by the CLI
const DefaultEventBuffer = 100

// Controller owns the job state and runs at most one job at a time on a
// single background worker.
type Controller struct {
	state       atomic.Int32
	pool        *ants.Pool
	logger      *slog.Logger
	eventBuffer int
}

// NewController creates a controller. eventBuffer is the capacity of the
// event channel handed to the caller of Start.
func NewController(logger *slog.Logger, eventBuffer int) (*Controller, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if eventBuffer < 0 {
		eventBuffer = 0
	}

	c := &Controller{logger: logger, eventBuffer: eventBuffer}

	pool, err := ants.NewPool(1, ants.WithPanicHandler(func(p interface{}) {
		c.logger.Error("conversion worker panicked", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	c.pool = pool

	return c, nil
}

// State returns the current job state
func (c *Controller) State() models.JobState {
	return models.JobState(c.state.Load())
}

// Start begins converting items into outputDir and returns the event
// stream. The stream ends with a FinishedEvent and is then closed.
// A second Start while a job is running fails with ErrConcurrentJob
// and leaves the running job untouched.
func (c *Controller) Start(items []models.InputItem, outputDir string) (<-chan models.Event, error) {
	if len(items) == 0 {
		return nil, models.ErrNoInputItems
	}

	if !c.state.CompareAndSwap(int32(models.StateIdle), int32(models.StateRunning)) {
		return nil, models.ErrConcurrentJob
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		c.state.Store(int32(models.StateIdle))
		return nil, &models.OutputDirError{Path: outputDir, Err: err}
	}

	jobID := uuid.NewString()
	snapshot := slices.Clone(items)
	events := make(chan models.Event, c.eventBuffer)

	if err := c.pool.Submit(func() { c.run(jobID, snapshot, outputDir, events) }); err != nil {
		c.state.Store(int32(models.StateIdle))
		return nil, fmt.Errorf("failed to start conversion worker: %w", err)
	}

	c.logger.Info("conversion job started", "job", jobID, "items", len(snapshot), "output", outputDir)
	return events, nil
}

// run executes one job. The state returns to Idle before FinishedEvent is
// delivered, so a consumer reacting to it may start the next job.
func (c *Controller) run(jobID string, items []models.InputItem, outputDir string, events chan models.Event) {
	result := models.JobResult{JobID: jobID, StartTime: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("conversion job aborted", "job", jobID, "panic", r)
			result.EndTime = time.Now()
		}

		c.state.Store(int32(models.StateIdle))
		events <- models.FinishedEvent{Result: result}
		close(events)

		c.logger.Info("conversion job finished",
			"job", jobID,
			"attempted", result.Attempted,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"elapsed", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))
	}()

	result = worker.NewWorker(jobID, outputDir, events, c.logger).Run(items)
}

// Close releases the worker pool. A job still in flight is abandoned.
func (c *Controller) Close() {
	c.pool.Release()
}
