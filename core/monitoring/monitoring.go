// Package monitoring holds the process-wide error reporter. Dispatch cycle
// aborts and adapter failures are captured here with tags naming where they
// happened.
package monitoring

import (
	"sync"
	"time"
)

// Tags annotate a captured error.
type Tags = map[string]string

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags Tags)
	// Recover reports a panic value already recovered by the caller.
	Recover(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, Tags) {}
func (NopMonitor) Recover(any)                  {}
func (NopMonitor) Flush(time.Duration)          {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init installs m and returns the monitor it replaces. A nil m is ignored.
func Init(m Monitor) Monitor {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	if m != nil {
		current = m
	}
	return prev
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CycleTags identifies the dispatch cycle and phase an error aborted.
func CycleTags(cycleID, phase string) Tags {
	return Tags{"module": "dispatch", "cycle_id": cycleID, "phase": phase}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags Tags) {
	if err == nil {
		return
	}
	get().CaptureException(err, tags)
}

// Recover reports a panic to the monitor and panics again. It only works
// when deferred directly.
func Recover() {
	if r := recover(); r != nil {
		get().Recover(r)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
