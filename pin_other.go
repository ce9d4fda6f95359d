//go:build !linux

package pipeline

import "errors"

// PinToCPU is a no-op on platforms without sched_setaffinity.
func PinToCPU(cpu int) error {
	return errors.New("pipeline: cpu pinning is not supported on this platform")
}
