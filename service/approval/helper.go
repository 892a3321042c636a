package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/actiongate/service/ticker"
)

// DecisionFunc builds the response for a pending request; nil skips it.
type DecisionFunc func(r *Request) *Response

// AutoDecider periodically applies fn to every pending request. It returns
// stop; cancelling ctx stops it as well.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return run(ctx, "approval.decide", interval, func(ctx context.Context) {
		for _, r := range svc.GetPendingApprovals(ctx, "") {
			if response := fn(r); response != nil {
				response.RequestID = r.ID
				svc.ProcessApprovalResponse(ctx, response)
			}
		}
	})
}

// AutoApprove approves every pending request.
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) *Response {
		return &Response{Decision: DecisionApprove, UserID: "auto"}
	}, interval)
}

// AutoReject rejects every pending request with reason.
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc, func(*Request) *Response {
		return &Response{Decision: DecisionReject, Reason: reason, UserID: "auto"}
	}, interval)
}

// AutoExpire runs the expiry sweep every interval.
func AutoExpire(ctx context.Context, svc Service, interval time.Duration) func() {
	return run(ctx, "approval.sweep", interval, func(ctx context.Context) {
		svc.ExpireStale(ctx)
	})
}

func run(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context)) func() {
	runner := ticker.New()
	if err := runner.Register(name, interval, fn); err != nil {
		return func() {}
	}
	_ = runner.Start(ctx)
	return runner.Stop
}

// PendingFilter narrows ListPending results.
type PendingFilter func(r *Request) bool

// WithActionType selects requests for actions of actionType.
func WithActionType(actionType string) PendingFilter {
	return func(r *Request) bool {
		return r.Action != nil && strings.EqualFold(r.Action.ActionType, actionType)
	}
}

// WithContactID selects requests for actions targeting contactID.
func WithContactID(contactID string) PendingFilter {
	return func(r *Request) bool {
		return r.Action != nil && r.Action.ContactID == contactID
	}
}

// ExpiringBefore selects requests whose deadline is before at.
func ExpiringBefore(at time.Time) PendingFilter {
	return func(r *Request) bool { return r.ExpiresAt.Before(at) }
}

// ListPending returns pending requests of userID matching every filter.
func ListPending(ctx context.Context, svc Service, userID string, filters ...PendingFilter) []*Request {
	var ret []*Request
outer:
	for _, r := range svc.GetPendingApprovals(ctx, userID) {
		for _, filter := range filters {
			if !filter(r) {
				continue outer
			}
		}
		ret = append(ret, r)
	}
	return ret
}

// WaitForResolution polls until request id leaves the pending state or
// timeout elapses.
func WaitForResolution(ctx context.Context, svc Service, id string, timeout time.Duration) (*Request, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	poll := time.NewTicker(5 * time.Millisecond)
	defer poll.Stop()
	for {
		r, err := svc.Lookup(ctx, id)
		if err != nil && !errors.Is(err, ErrRequestNotFound) {
			return nil, err
		}
		if r != nil && r.Status.IsTerminal() {
			return r, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for approval %s: %w", id, ctx.Err())
		case <-poll.C:
		}
	}
}
