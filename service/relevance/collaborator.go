package relevance

import (
	"context"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
)

// ContextProvider loads the live contact context for an action. An error is
// treated as a validation failure and resolved by the uncertainty policy.
type ContextProvider interface {
	Context(ctx context.Context, contactID, organizationID, agentID string) (*contact.Context, error)
}

// ContextProviderFunc adapts a function to ContextProvider.
type ContextProviderFunc func(ctx context.Context, contactID, organizationID, agentID string) (*contact.Context, error)

// Context implements ContextProvider.
func (f ContextProviderFunc) Context(ctx context.Context, contactID, organizationID, agentID string) (*contact.Context, error) {
	return f(ctx, contactID, organizationID, agentID)
}

// AlternativeSuggester proposes replacement actions for one whose premise no
// longer holds.
type AlternativeSuggester interface {
	Suggest(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) ([]*action.ScheduledAction, error)
}

// SuggesterFunc adapts a function to AlternativeSuggester.
type SuggesterFunc func(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) ([]*action.ScheduledAction, error)

// Suggest implements AlternativeSuggester.
func (f SuggesterFunc) Suggest(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) ([]*action.ScheduledAction, error) {
	return f(ctx, anAction, subject)
}

// minimalProvider is used when no provider is configured.
type minimalProvider struct{}

func (minimalProvider) Context(_ context.Context, contactID, organizationID, agentID string) (*contact.Context, error) {
	return contact.Minimal(contactID, organizationID, agentID), nil
}
