package report

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"webp2jpg/internal/models"
)

// Console renders a job's event stream on a terminal
type Console struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewConsole creates a console reporter. With showBar false only log and
// status lines are printed.
func NewConsole(out io.Writer, showBar bool) *Console {
	c := &Console{out: out}
	if showBar {
		c.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Converting"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	return c
}

// Consume applies every event in order until the stream closes and returns
// the result carried by the FinishedEvent.
func (c *Console) Consume(events <-chan models.Event) models.JobResult {
	var result models.JobResult
	for ev := range events {
		switch e := ev.(type) {
		case models.LogEvent:
			c.println(e.Text)
		case models.ProgressEvent:
			c.progress(e.Fraction)
		case models.StatusEvent:
			if c.bar != nil {
				c.bar.Describe(e.Text)
			} else {
				c.println(">>> " + e.Text)
			}
		case models.FinishedEvent:
			result = e.Result
			if c.bar != nil {
				_ = c.bar.Finish()
				fmt.Fprintln(c.out)
			}
		}
	}
	return result
}

func (c *Console) progress(fraction float64) {
	if c.bar == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	_ = c.bar.Set(int(fraction * 100))
}

func (c *Console) println(text string) {
	if c.bar != nil {
		_ = c.bar.Clear()
	}
	fmt.Fprintln(c.out, text)
}
