package health

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hattiebot/conduit/internal/core"
)

// RecoveryWindow is how long a component stays degraded after an error it
// has since recovered from.
const RecoveryWindow = 5 * time.Minute

// Tracker records the outcome of calls to an upstream dependency.
type Tracker struct {
	name string

	mu           sync.RWMutex
	lastSuccess  time.Time
	lastError    time.Time
	lastErrorMsg string
	successCount int64
	errorCount   int64
	now          func() time.Time
}

func NewTracker(name string) *Tracker {
	return &Tracker{name: name, now: time.Now}
}

// Observe records err as a failure, or a success when err is nil. A call the
// caller cancelled says nothing about the upstream and is not recorded.
func (t *Tracker) Observe(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.lastError = t.now()
		t.lastErrorMsg = err.Error()
		t.errorCount++
		return
	}
	t.lastSuccess = t.now()
	t.successCount++
}

// Counts returns the number of successes and failures observed.
func (t *Tracker) Counts() (ok, failed int64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.successCount, t.errorCount
}

func (t *Tracker) HealthCheck(context.Context) ComponentHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := ComponentHealth{
		Name:   t.name,
		Status: StatusOK,
		LastOK: t.lastSuccess,
	}
	if !t.lastError.IsZero() {
		h.LastError = t.lastError
		if t.lastError.After(t.lastSuccess) {
			h.Status = StatusError
			h.Message = t.lastErrorMsg
			return h
		}
		if t.now().Sub(t.lastError) < RecoveryWindow {
			h.Status = StatusDegraded
			h.Message = "recent error: " + t.lastErrorMsg
			return h
		}
	}
	if t.lastSuccess.IsZero() {
		h.Status = StatusUnknown
		h.Message = "no calls yet"
	}
	return h
}

type trackedClient struct {
	next    core.LLMClient
	tracker *Tracker
}

// TrackClient reports every Complete outcome of c to t.
func TrackClient(c core.LLMClient, t *Tracker) core.LLMClient {
	return &trackedClient{next: c, tracker: t}
}

func (c *trackedClient) Complete(ctx context.Context, req core.CompletionRequest) (core.Completion, error) {
	out, err := c.next.Complete(ctx, req)
	c.tracker.Observe(err)
	return out, err
}
