package pipeline

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Unit is anything with the hire/dismiss lifecycle: Doer, Operator,
// Controller, Team, or another Pipeline.
type Unit interface {
	Hire() error
	Dismiss() error
}

// Pipeline composes units into one lifecycle. Units are hired in the
// order they were added and dismissed in reverse, so downstream
// stages are ready before upstream ones start feeding them, and
// upstream stages stop producing before downstream ones wind down.
type Pipeline struct {
	mu    sync.Mutex
	units []Unit
	hired bool
}

func NewPipeline(units ...Unit) *Pipeline {
	return &Pipeline{units: units}
}

// Add appends units to the pipeline. Adding to a hired pipeline is
// not supported.
func (p *Pipeline) Add(units ...Unit) {
	p.mu.Lock()
	p.units = append(p.units, units...)
	p.mu.Unlock()
}

// Hire hires every unit front to back. On failure the units hired so
// far are dismissed in reverse and the combined errors are returned.
func (p *Pipeline) Hire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hired {
		return ErrAlreadyHired
	}

	for i, u := range p.units {
		if err := u.Hire(); err != nil {
			errs := fmt.Errorf("pipeline: hiring unit %d: %w", i, err)
			for j := i - 1; j >= 0; j-- {
				errs = multierr.Append(errs, p.units[j].Dismiss())
			}
			return errs
		}
	}
	p.hired = true
	return nil
}

// Dismiss dismisses every unit back to front, collecting errors. Each
// unit's own Dismiss blocks until that unit has drained, so a
// returned nil means the whole pipeline wound down cleanly.
func (p *Pipeline) Dismiss() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.hired {
		return ErrNotHired
	}

	var errs error
	for i := len(p.units) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, p.units[i].Dismiss())
	}
	p.hired = false
	return errs
}
