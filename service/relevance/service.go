// Package relevance re-validates the premise of scheduled actions right
// before they execute. Rule-based criteria run first; when their confidence is
// low and the caller opted in, an LLM verdict is requested and the more
// confident of the two wins. Every verdict is appended to a bounded audit log.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/outcome"
	mrelevance "github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/audit"
	"github.com/viant/actiongate/service/relevance/llm"
	"github.com/viant/actiongate/service/relevance/metrics"
	"github.com/viant/actiongate/service/relevance/rule"
	"github.com/viant/actiongate/tracing"
)

const systemChecker = "system"

var (
	ErrInvalidRequest     = errors.New("invalid relevance request")
	ErrContextUnavailable = errors.New("contact context unavailable")
	ErrValidationPanic    = errors.New("relevance validation panicked")
)

// Service is the relevance validator.
type Service struct {
	config      *Config
	uncertainty *policy.Uncertainty
	engine      *rule.Engine
	bridge      *llm.Bridge
	contexts    ContextProvider
	suggester   AlternativeSuggester
	audit       *audit.Log[mrelevance.Result]
	metrics     *metrics.Metrics
	fs          afs.Service
	logger      *slog.Logger
}

// New creates a validator. Without a bridge, escalation yields LLM-Error
// verdicts which never override the rule result.
func New(options ...Option) *Service {
	ret := &Service{
		config:   DefaultConfig(),
		contexts: minimalProvider{},
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	ret.uncertainty = ret.config.Uncertainty()
	if ret.engine == nil {
		ret.engine = rule.New(rule.WithPolicy(ret.uncertainty), rule.WithLogger(ret.logger))
	}
	if ret.bridge == nil {
		ret.bridge = llm.New(nil, llm.WithPolicy(ret.uncertainty), llm.WithLogger(ret.logger))
	}
	if ret.contexts == nil {
		ret.contexts = minimalProvider{}
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	ret.audit = audit.New[mrelevance.Result](ret.config.AuditCapacity)
	return ret
}

// Uncertainty returns the policy applied when no per-call override is set.
func (s *Service) Uncertainty() *policy.Uncertainty {
	return s.uncertainty
}

// ValidateActionRelevance re-checks an action. It never fails: collaborator
// errors and panics produce an Error verdict resolved by the uncertainty policy.
func (s *Service) ValidateActionRelevance(ctx context.Context, request *mrelevance.Request) (result *mrelevance.Result) {
	started := time.Now()
	if request != nil && request.TraceID != "" {
		ctx = tracing.WithTraceID(ctx, request.TraceID)
	}
	ctx, span := tracing.StartSpan(ctx, "relevance.ValidateActionRelevance", "INTERNAL")
	ctx = tracing.WithTraceID(ctx, tracing.TraceID(ctx))
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrValidationPanic, r)
			result = s.failSafe(ctx, request, err)
		}
		result = s.record(ctx, request, result)
		s.metrics.ObserveValidation(string(result.ValidationMethod), result.IsRelevant, time.Since(started))
		tracing.EndSpan(span, err)
	}()
	if result, err = s.validate(ctx, request); err != nil {
		result = s.failSafe(ctx, request, err)
	}
	return result
}

func (s *Service) validate(ctx context.Context, request *mrelevance.Request) (*mrelevance.Result, error) {
	if request == nil || request.Action == nil {
		return nil, ErrInvalidRequest
	}
	subject, err := s.resolveContext(ctx, request)
	if err != nil {
		return nil, err
	}
	ruleResult := s.engine.Evaluate(ctx, request.Action.RelevanceCriteria, subject)
	if !s.shouldEscalate(request, ruleResult) {
		return ruleResult, nil
	}
	llmResult := s.bridge.Validate(ctx, request.Action, subject, request.UserOverrides)
	merged := Merge(ruleResult, llmResult)
	switch {
	case llmResult.ValidationMethod == mrelevance.MethodLLMError:
		s.metrics.IncrementEscalation("error")
	case merged.ValidationMethod == mrelevance.MethodLLM:
		s.metrics.IncrementEscalation("won")
	default:
		s.metrics.IncrementEscalation("kept")
	}
	return merged, nil
}

func (s *Service) resolveContext(ctx context.Context, request *mrelevance.Request) (*contact.Context, error) {
	if request.Context != nil {
		return request.Context, nil
	}
	anAction := request.Action
	subject, err := s.contexts.Context(ctx, anAction.ContactID, anAction.OrganizationID, anAction.AgentID)
	if err != nil {
		return nil, fmt.Errorf("%w for contact %s: %v", ErrContextUnavailable, anAction.ContactID, err)
	}
	if subject == nil {
		subject = contact.Minimal(anAction.ContactID, anAction.OrganizationID, anAction.AgentID)
	}
	return subject, nil
}

func (s *Service) shouldEscalate(request *mrelevance.Request, ruleResult *mrelevance.Result) bool {
	return request.UseLLMValidation && s.config.EnableLLMValidation &&
		ruleResult.ConfidenceScore < s.config.MinimumConfidenceScore
}

// Merge combines a rule verdict with an LLM verdict: the LLM wins only when
// strictly more confident, otherwise the rule verdict is kept and labelled to
// show escalation was attempted.
func Merge(ruleResult, llmResult *mrelevance.Result) *mrelevance.Result {
	if llmResult != nil && llmResult.ConfidenceScore > ruleResult.ConfidenceScore {
		ret := llmResult.Clone()
		ret.ValidationMethod = mrelevance.MethodLLM
		return ret
	}
	ret := ruleResult.Clone()
	ret.ValidationMethod = mrelevance.MethodRuleBasedLLM
	return ret
}

// record stamps identity fields and appends a copy to the audit log.
func (s *Service) record(ctx context.Context, request *mrelevance.Request, result *mrelevance.Result) *mrelevance.Result {
	if result == nil {
		result = s.failSafe(ctx, request, ErrInvalidRequest)
	}
	if request != nil && request.Action != nil {
		result.ActionID = request.Action.ID
	}
	result.TraceID = tracing.TraceID(ctx)
	result.CheckedBy = systemChecker
	if request != nil && request.UserID != "" {
		result.CheckedBy = request.UserID
	}
	if result.CheckedAt.IsZero() {
		result.CheckedAt = clock.Now()
	}
	s.audit.Append(result.Clone())
	s.metrics.SetAuditEntries(s.audit.Len())
	return result
}

func (s *Service) failSafe(ctx context.Context, request *mrelevance.Request, err error) *mrelevance.Result {
	uncertainty := policy.FromContext(ctx, s.uncertainty)
	ret := &mrelevance.Result{
		IsRelevant:       uncertainty.ErrorRelevant(),
		ConfidenceScore:  0,
		Reason:           fmt.Sprintf("relevance validation failed: %v", err),
		ValidationMethod: mrelevance.MethodError,
		CheckedAt:        clock.Now(),
		ErrorKind:        outcome.KindValidation,
	}
	if request != nil {
		if request.Action != nil {
			ret.ActionID = request.Action.ID
		}
		if request.Context != nil {
			ret.ContextSnapshot = request.Context.Snapshot()
		}
	}
	s.logger.WarnContext(ctx, "relevance validation failed", "actionId", ret.ActionID, "relevant", ret.IsRelevant, "error", err)
	return ret
}

// ValidateBatch validates every request with bounded parallelism. Results
// keep the request order and none is dropped: a request that cannot start
// gets the fail-safe verdict.
func (s *Service) ValidateBatch(ctx context.Context, requests []*mrelevance.Request) []*mrelevance.Result {
	results := make([]*mrelevance.Result, len(requests))
	limit := s.config.MaxConcurrentValidations
	if limit <= 0 {
		limit = DefaultConfig().MaxConcurrentValidations
	}
	sem := semaphore.NewWeighted(int64(limit))
	var group errgroup.Group
	for i, request := range requests {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = s.record(ctx, request, s.failSafe(ctx, request, err))
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)
			results[i] = s.ValidateActionRelevance(ctx, request)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// IsActionStillRelevant is the quick check used by the scheduler. A failed
// check is reported as a defaulted outcome whose value follows the
// uncertainty policy, which proceeds unless configured to suppress.
func (s *Service) IsActionStillRelevant(ctx context.Context, anAction *action.ScheduledAction, contactID, organizationID string) (ret outcome.Outcome[bool]) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrValidationPanic, r)
			ret = outcome.Fallback(policy.FromContext(ctx, s.uncertainty).ErrorRelevant(), outcome.KindValidation, err)
		}
	}()
	if anAction == nil {
		return outcome.Fallback(policy.FromContext(ctx, s.uncertainty).ErrorRelevant(), outcome.KindValidation, ErrInvalidRequest)
	}
	if (contactID != "" && contactID != anAction.ContactID) || (organizationID != "" && organizationID != anAction.OrganizationID) {
		anAction = anAction.Clone()
		if contactID != "" {
			anAction.ContactID = contactID
		}
		if organizationID != "" {
			anAction.OrganizationID = organizationID
		}
	}
	result := s.ValidateActionRelevance(ctx, &mrelevance.Request{
		Action:           anAction,
		UseLLMValidation: true,
		TraceID:          anAction.TraceID,
	})
	if result.Defaulted() {
		return outcome.Fallback(result.IsRelevant, result.ErrorKind, errors.New(result.Reason))
	}
	return outcome.OK(result.IsRelevant)
}

// SuggestAlternatives asks the suggester for replacement actions. Failures
// are logged and yield no alternatives.
func (s *Service) SuggestAlternatives(ctx context.Context, anAction *action.ScheduledAction, subject *contact.Context) (ret []*action.ScheduledAction) {
	if s.suggester == nil || anAction == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.WarnContext(ctx, "alternative suggestion panicked", "actionId", anAction.ID, "panic", r)
			ret = nil
		}
	}()
	if subject == nil {
		var err error
		if subject, err = s.contexts.Context(ctx, anAction.ContactID, anAction.OrganizationID, anAction.AgentID); err != nil || subject == nil {
			subject = contact.Minimal(anAction.ContactID, anAction.OrganizationID, anAction.AgentID)
		}
	}
	alternatives, err := s.suggester.Suggest(ctx, anAction, subject)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to suggest alternatives", "actionId", anAction.ID, "error", err)
		return nil
	}
	for _, candidate := range alternatives {
		if candidate != nil {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// GetValidationAuditLog returns matching audit entries oldest first. The
// returned results are copies.
func (s *Service) GetValidationAuditLog(filter *mrelevance.AuditFilter) []*mrelevance.Result {
	limit := 0
	if filter != nil {
		limit = filter.Limit
	}
	entries := s.audit.Snapshot(filter.Matches, limit)
	ret := make([]*mrelevance.Result, len(entries))
	for i, entry := range entries {
		ret[i] = entry.Clone()
	}
	return ret
}

// ExportAuditLog writes the audit log as JSON to URL.
func (s *Service) ExportAuditLog(ctx context.Context, URL string) error {
	return s.audit.Export(ctx, s.fs, URL)
}
