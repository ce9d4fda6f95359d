package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed interval between two Clocker checkpoints.
type Phase struct {
	Label    string
	Duration time.Duration
}

// Clocker measures the phases of a run: Reset starts the clock and
// each Record closes the phase since the previous checkpoint. It is
// a diagnostic aid, typically wrapped around hire/push/dismiss blocks
// to see where the time goes. Safe for concurrent use.
type Clocker struct {
	mu          sync.Mutex
	checkpoints []checkpoint
}

type checkpoint struct {
	label string
	at    time.Time
}

// NewClocker returns a started clocker.
func NewClocker() *Clocker {
	c := &Clocker{}
	c.Reset()
	return c
}

// Reset discards all checkpoints and restarts the clock.
func (c *Clocker) Reset() {
	c.mu.Lock()
	c.checkpoints = c.checkpoints[:0]
	c.checkpoints = append(c.checkpoints, checkpoint{at: time.Now()})
	c.mu.Unlock()
}

// Record closes the current phase under the given label.
func (c *Clocker) Record(label string) {
	c.mu.Lock()
	c.checkpoints = append(c.checkpoints, checkpoint{label: label, at: time.Now()})
	c.mu.Unlock()
}

// Results returns one Phase per recorded checkpoint, in order.
func (c *Clocker) Results() []Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.checkpoints) <= 1 {
		return nil
	}
	results := make([]Phase, 0, len(c.checkpoints)-1)
	for i := 1; i < len(c.checkpoints); i++ {
		results = append(results, Phase{
			Label:    c.checkpoints[i].label,
			Duration: c.checkpoints[i].at.Sub(c.checkpoints[i-1].at),
		})
	}
	return results
}

// ResultsText renders the phases as display text, one line per phase.
// Unlabeled phases are numbered.
func (c *Clocker) ResultsText() string {
	var b strings.Builder
	for i, p := range c.Results() {
		if i > 0 {
			b.WriteString("\n")
		}
		if p.Label == "" {
			fmt.Fprintf(&b, "(#%d): %.1f seconds", i+1, p.Duration.Seconds())
		} else {
			fmt.Fprintf(&b, "%s: %.1f seconds", p.Label, p.Duration.Seconds())
		}
	}
	return b.String()
}

// Duration returns the duration of the phase with the given label,
// or of the last phase when label is empty. The second result is
// false when no phase matches. With duplicate labels the most recent
// phase wins.
func (c *Clocker) Duration(label string) (time.Duration, bool) {
	results := c.Results()
	if label == "" {
		if len(results) == 0 {
			return 0, false
		}
		return results[len(results)-1].Duration, true
	}
	for i := len(results) - 1; i >= 0; i-- {
		if results[i].Label == label {
			return results[i].Duration, true
		}
	}
	return 0, false
}
