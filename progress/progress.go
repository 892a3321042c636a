package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/actiongate/internal/clock"
)

// Delta is an incremental counter change. Fields are signed so a transition
// can move an action from one bucket to another.
type Delta struct {
	Scheduled   int
	Pending     int
	Awaiting    int
	Executing   int
	Completed   int
	Failed      int
	Suppressed  int
	Cancelled   int
	Retried     int
	Substituted int
}

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	StartedAt   time.Time
	UpdatedAt   time.Time
	Scheduled   int
	Pending     int
	Awaiting    int
	Executing   int
	Completed   int
	Failed      int
	Suppressed  int
	Cancelled   int
	Retried     int
	Substituted int
}

func (s *Snapshot) apply(d Delta) {
	s.Scheduled += d.Scheduled
	s.Pending += d.Pending
	s.Awaiting += d.Awaiting
	s.Executing += d.Executing
	s.Completed += d.Completed
	s.Failed += d.Failed
	s.Suppressed += d.Suppressed
	s.Cancelled += d.Cancelled
	s.Retried += d.Retried
	s.Substituted += d.Substituted
}

// Progress aggregates scheduler counters. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	state    Snapshot
	onChange func(Snapshot)
}

// New creates a tracker; onChange, when set, is called after every update
// outside the tracker lock.
func New(onChange func(Snapshot)) *Progress {
	return &Progress{state: Snapshot{StartedAt: clock.Now()}, onChange: onChange}
}

// Update applies d.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.state.apply(d)
	p.state.UpdatedAt = clock.Now()
	snapshot := p.state
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OnChange replaces the change callback; nil disables it.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in ctx.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext returns the tracker carried by ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx applies d to the tracker carried by ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
