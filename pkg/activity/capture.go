package activity

import (
	"context"
	"sync"
)

// CaptureHook accumulates record lifecycle events in memory so tests can
// assert on the verbs a repository or schema emitted. Err, when set, is
// returned from every Notify to exercise failure fan-out.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify normalizes and appends the event, then returns the configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}
