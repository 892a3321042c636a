// Package llm bridges relevance validation to an external language model.
// It builds the prompts, invokes the model through the Service collaborator
// and parses a strict JSON verdict. Every failure degrades to a fail-closed
// result; nothing escapes the bridge as an error or panic.
package llm

import "context"

// Service invokes a language model and returns its raw text answer. An empty
// answer is a valid "no answer" signal.
type Service interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt, traceID string) (string, error)
}

// PromptProvider supplies role specific system prompts.
type PromptProvider interface {
	SystemPrompt(role, industryProfile string) string
}

// Roles requested from the PromptProvider.
const (
	RoleRelevanceValidator = "ActionRelevanceValidator"
	RoleApprovalAdvisor    = "ApprovalAdvisor"
)

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, systemPrompt, userPrompt, traceID string) (string, error)

// Invoke calls fn.
func (fn ServiceFunc) Invoke(ctx context.Context, systemPrompt, userPrompt, traceID string) (string, error) {
	return fn(ctx, systemPrompt, userPrompt, traceID)
}

type defaultPrompts struct{}

func (defaultPrompts) SystemPrompt(role, industryProfile string) string {
	switch role {
	case RoleApprovalAdvisor:
		return "You advise whether a human must approve an automated relationship-management action" + industrySuffix(industryProfile) +
			". Answer with JSON only: {\"requiresApproval\": bool, \"reason\": string}."
	default:
		return "You validate whether a previously scheduled relationship-management action is still relevant" + industrySuffix(industryProfile) +
			". Answer with JSON only: {\"isRelevant\": bool, \"confidenceScore\": number between 0 and 1, \"reason\": string, \"recommendedAction\": string, \"alternativeActions\": [string]}."
	}
}

func industrySuffix(profile string) string {
	if profile == "" {
		return ""
	}
	return " for the " + profile + " industry"
}
