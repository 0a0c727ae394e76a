package models

// Event is a progress event produced by a running job. The concrete types
// are LogEvent, ProgressEvent, StatusEvent and FinishedEvent; consumers
// dispatch with a type switch.
type Event interface {
	event()
}

// LogEvent carries one line of narration
type LogEvent struct {
	Text string
}

// ProgressEvent carries the completed fraction of the job, 0.0 to 1.0
type ProgressEvent struct {
	Fraction float64
}

// StatusEvent carries a short status line
type StatusEvent struct {
	Text string
}

// FinishedEvent is always the last event of a job
type FinishedEvent struct {
	Result JobResult
}

func (LogEvent) event()      {}
func (ProgressEvent) event() {}
func (StatusEvent) event()   {}
func (FinishedEvent) event() {}
