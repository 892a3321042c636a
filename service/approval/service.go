package approval

import (
	"context"
	"errors"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/outcome"
	"github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/service/messaging"
)

var (
	ErrInvalidRequest   = errors.New("approval: invalid request")
	ErrRequestNotFound  = errors.New("approval: request not found")
	ErrAlreadyResolved  = errors.New("approval: request already resolved")
	ErrUnknownDecision  = errors.New("approval: unknown decision")
	ErrInvalidChange    = errors.New("approval: invalid modification")
	ErrProcessingFailed = errors.New("approval: processing failed")
)

// Service is the approval workflow manager.
type Service interface {
	// RequiresApproval decides whether a human must sign off. Failures
	// default to true.
	RequiresApproval(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID string) bool

	CreateApprovalRequest(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID, reason string, overrides map[string]interface{}) (*Request, error)

	// ProcessApprovalResponse resolves a pending request. The outcome value is
	// the action to execute, or nil when it must not run.
	ProcessApprovalResponse(ctx context.Context, response *Response) outcome.Outcome[*action.ScheduledAction]

	// GetPendingApprovals lists pending requests of userID, all users when empty.
	GetPendingApprovals(ctx context.Context, userID string) []*Request

	// ExpireStale moves requests past their deadline to Expired.
	ExpireStale(ctx context.Context) []*Request

	// Withdraw rejects pending requests raised for actionID.
	Withdraw(ctx context.Context, actionID, reason string) []*Request

	// Lookup returns a pending or resolved request.
	Lookup(ctx context.Context, id string) (*Request, error)

	// OnResolved registers a listener for requests leaving the pending map.
	OnResolved(listener Listener)

	Queue() messaging.Queue[Event]
}

// Advisor recommends whether an action needs approval.
type Advisor interface {
	RecommendApproval(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID string) (bool, error)
}

// AlternativeSource proposes alternative actions shown to the approver.
type AlternativeSource interface {
	SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) []*action.ScheduledAction
}
