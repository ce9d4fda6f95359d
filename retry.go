package pipeline

import "time"

const (
	defaultAttempts     = 3
	defaultInitialRetry = 200 * time.Millisecond
	defaultMaxRetry     = 5 * time.Second
)

// RetryPolicy describes how many times and how often a failed task is
// retried. Zero values are replaced with the package defaults.
type RetryPolicy struct {
	// Attempts is the maximum number of tries for a task.
	Attempts int

	// Initial is the first backoff duration.
	Initial time.Duration

	// Max is the cap for backoff duration.
	Max time.Duration
}

// DefaultRetryPolicy returns the policy used when a worker enables
// retries without tuning them.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Attempts: defaultAttempts,
		Initial:  defaultInitialRetry,
		Max:      defaultMaxRetry,
	}
}

func (p *RetryPolicy) fillDefaults() {
	if p.Attempts <= 0 {
		p.Attempts = defaultAttempts
	}
	if p.Initial <= 0 {
		p.Initial = defaultInitialRetry
	}
	if p.Max <= 0 {
		p.Max = defaultMaxRetry
	}
}
