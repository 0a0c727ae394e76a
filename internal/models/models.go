package models

import (
	"fmt"
	"time"
)

// ItemKind identifies how an input path is processed
type ItemKind int

const (
	KindSingleImage ItemKind = iota
	KindArchive
	KindDirectory
)

func (k ItemKind) String() string {
	switch k {
	case KindSingleImage:
		return "image"
	case KindArchive:
		return "archive"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// InputItem is one caller-supplied path after classification
type InputItem struct {
	Path string
	Kind ItemKind
}

// ConversionTask pairs a source WebP image with its JPEG destination
type ConversionTask struct {
	Source      string
	Destination string
}

// OutcomeStatus is the result class of one processed item
type OutcomeStatus string

const (
	OutcomeSuccess        OutcomeStatus = "success"
	OutcomePartialSuccess OutcomeStatus = "partial"
	OutcomeFailure        OutcomeStatus = "failure"
)

// Outcome describes how an item finished. Reason is empty on plain success.
type Outcome struct {
	Status OutcomeStatus
	Reason string
	Err    error
}

// Succeeded reports whether the item counts as a success in the job totals.
// Partial success counts.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess || o.Status == OutcomePartialSuccess
}

// ItemResult is the per-item entry of a JobResult
type ItemResult struct {
	Item      InputItem
	Outcome   Outcome
	Converted int
	Failed    int
	Output    string
	Duration  time.Duration
}

// JobResult aggregates the outcome of one job run
type JobResult struct {
	JobID     string
	Attempted int
	Succeeded int
	Failed    int

	// Image-level totals across all items
	ImagesConverted int
	ImagesFailed    int

	Items     []ItemResult
	StartTime time.Time
	EndTime   time.Time
}

// Add records one item result and updates the counters
func (r *JobResult) Add(ir ItemResult) {
	r.Attempted++
	if ir.Outcome.Succeeded() {
		r.Succeeded++
	} else {
		r.Failed++
	}
	r.ImagesConverted += ir.Converted
	r.ImagesFailed += ir.Failed
	r.Items = append(r.Items, ir)
}

// Overall classifies the whole job: failure when nothing succeeded,
// partial success when some items failed, success otherwise.
func (r JobResult) Overall() OutcomeStatus {
	switch {
	case r.Succeeded == 0:
		return OutcomeFailure
	case r.Failed > 0:
		return OutcomePartialSuccess
	default:
		return OutcomeSuccess
	}
}

// JobState is the lifecycle state of the job controller
type JobState int32

const (
	StateIdle JobState = iota
	StateRunning
)

func (s JobState) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}
