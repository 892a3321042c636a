package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/outcome"
	"github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/tracing"
)

// checkerName identifies LLM verdicts in the audit log.
const checkerName = "llm-relevance-bridge"

// Bridge validates relevance with a language model.
type Bridge struct {
	service Service
	prompts PromptProvider
	policy  *policy.Uncertainty
	timeout time.Duration
	logger  *slog.Logger
}

// Option customises the bridge.
type Option func(*Bridge)

// WithPromptProvider sets the system prompt source.
func WithPromptProvider(provider PromptProvider) Option {
	return func(b *Bridge) {
		if provider != nil {
			b.prompts = provider
		}
	}
}

// WithPolicy sets the uncertainty policy used for fail-closed results.
func WithPolicy(p *policy.Uncertainty) Option {
	return func(b *Bridge) { b.policy = p }
}

// WithTimeout bounds every model call; a timeout is handled like a parse error.
func WithTimeout(timeout time.Duration) Option {
	return func(b *Bridge) { b.timeout = timeout }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// New creates a bridge over service.
func New(service Service, options ...Option) *Bridge {
	ret := &Bridge{
		service: service,
		prompts: defaultPrompts{},
		policy:  policy.DefaultUncertainty(),
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Validate asks the model whether anAction is still relevant. It is a total
// function: transport errors, timeouts, empty answers and malformed verdicts
// all produce a LLM-Error result with zero confidence.
func (b *Bridge) Validate(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context, overrides map[string]interface{}) (result *relevance.Result) {
	ctx, span := tracing.StartSpan(ctx, "llm.Validate", "CLIENT")
	traceID := tracing.TraceID(ctx)
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("llm bridge panic: %v", r)
			result = b.failClosed(ctx, anAction, subject, outcome.KindValidation, err)
		}
		tracing.EndSpan(span, err)
	}()

	if subject == nil {
		subject = &contact.Context{}
	}
	if b.service == nil {
		err = fmt.Errorf("llm service not configured")
		return b.failClosed(ctx, anAction, subject, outcome.KindValidation, err)
	}
	userPrompt, err := validationPrompt(anAction, subject, overrides)
	if err != nil {
		return b.failClosed(ctx, anAction, subject, outcome.KindValidation, err)
	}
	systemPrompt := b.prompts.SystemPrompt(RoleRelevanceValidator, subject.IndustryProfile)
	answer, err := b.invoke(ctx, systemPrompt, userPrompt, traceID)
	if err != nil {
		return b.failClosed(ctx, anAction, subject, outcome.KindValidation, err)
	}
	parsed, err := parseVerdict(answer)
	if err != nil {
		return b.failClosed(ctx, anAction, subject, outcome.KindParse, err)
	}
	return &relevance.Result{
		ActionID:           anAction.ID,
		IsRelevant:         *parsed.IsRelevant,
		ConfidenceScore:    *parsed.ConfidenceScore,
		Reason:             parsed.Reason,
		ValidationMethod:   relevance.MethodLLM,
		RecommendedAction:  parsed.RecommendedAction,
		AlternativeActions: parsed.AlternativeActions,
		ContextSnapshot:    subject.Snapshot(),
		CheckedAt:          clock.Now(),
		CheckedBy:          checkerName,
		TraceID:            traceID,
	}
}

// RecommendApproval asks the model whether a human should sign off. Errors
// are returned to the caller, which decides the fail-safe default.
func (b *Bridge) RecommendApproval(ctx context.Context, anAction *action.ScheduledAction, result *relevance.Result, userID string) (required bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "llm.RecommendApproval", "CLIENT")
	defer func() {
		if r := recover(); r != nil {
			required, err = true, fmt.Errorf("llm bridge panic: %v", r)
		}
		tracing.EndSpan(span, err)
	}()
	if b.service == nil {
		return true, fmt.Errorf("llm service not configured")
	}
	if result == nil {
		result = &relevance.Result{}
	}
	userPrompt, err := approvalPrompt(anAction, result, userID)
	if err != nil {
		return true, err
	}
	industry, _ := result.ContextSnapshot["industryProfile"].(string)
	answer, err := b.invoke(ctx, b.prompts.SystemPrompt(RoleApprovalAdvisor, industry), userPrompt, tracing.TraceID(ctx))
	if err != nil {
		return true, err
	}
	advice, err := parseApprovalAdvice(answer)
	if err != nil {
		return true, err
	}
	return *advice.RequiresApproval, nil
}

func (b *Bridge) invoke(ctx context.Context, systemPrompt, userPrompt, traceID string) (string, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	answer, err := b.service.Invoke(ctx, systemPrompt, userPrompt, traceID)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return "", fmt.Errorf("llm invocation failed: %w", err)
	}
	return answer, nil
}

func (b *Bridge) failClosed(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context, kind outcome.Kind, err error) *relevance.Result {
	uncertainty := policy.FromContext(ctx, b.policy)
	actionID := ""
	if anAction != nil {
		actionID = anAction.ID
	}
	b.logger.WarnContext(ctx, "llm relevance validation failed", "actionId", actionID, "error", err)
	return &relevance.Result{
		ActionID:         actionID,
		IsRelevant:       uncertainty.LLMErrorRelevant(),
		ConfidenceScore:  0,
		Reason:           fmt.Sprintf("llm validation unavailable: %v", err),
		ValidationMethod: relevance.MethodLLMError,
		ContextSnapshot:  subject.Snapshot(),
		CheckedAt:        clock.Now(),
		CheckedBy:        checkerName,
		TraceID:          tracing.TraceID(ctx),
		ErrorKind:        kind,
	}
}
