package sync

import (
	"errors"
	gosync "sync"

	"nursery-sync/core/metrics"
)

// ErrRunInFlight is returned when a run is requested for a service that
// already has one in progress. Automation sessions are not reentrant, so
// runs per service serialize.
var ErrRunInFlight = errors.New("a run is already in flight for this service")

// Runner hands out at most one run slot per service at a time.
type Runner struct {
	mu       gosync.Mutex
	inFlight map[string]bool
}

// NewRunner creates an empty run guard.
func NewRunner() *Runner {
	return &Runner{inFlight: make(map[string]bool)}
}

// Acquire claims the run slot for a service. It returns a release
// function on success and ErrRunInFlight when the slot is taken.
func (r *Runner) Acquire(service string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[service] {
		return nil, ErrRunInFlight
	}
	r.inFlight[service] = true
	metrics.RunsInFlight.WithLabelValues(service).Set(1)

	var once gosync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.inFlight, service)
			r.mu.Unlock()
			metrics.RunsInFlight.WithLabelValues(service).Set(0)
		})
	}
	return release, nil
}
