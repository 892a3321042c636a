// Package rule implements the rule-based relevance engine: every criterion
// stored on an action is evaluated against the live contact context and the
// verdicts are folded into a confidence score.
package rule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/viant/actiongate/internal/clock"
	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/model/relevance"
	"github.com/viant/actiongate/policy"
	"github.com/viant/actiongate/service/relevance/criteria"
)

// Engine evaluates relevance criteria. It is stateless and safe for
// concurrent use.
type Engine struct {
	table  criteria.Table
	policy *policy.Uncertainty
	logger *slog.Logger
}

// Option customises the engine.
type Option func(*Engine)

// WithTable replaces the criterion lookup table.
func WithTable(table criteria.Table) Option {
	return func(e *Engine) { e.table = table }
}

// WithPolicy sets the uncertainty policy.
func WithPolicy(p *policy.Uncertainty) Option {
	return func(e *Engine) { e.policy = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine with the built-in criteria.
func New(options ...Option) *Engine {
	ret := &Engine{
		table:  criteria.Default(),
		policy: policy.DefaultUncertainty(),
		logger: slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Evaluate runs every criterion and aggregates the verdicts. Confidence is
// the share of passing criteria; an empty criteria map is fully relevant.
func (e *Engine) Evaluate(ctx context.Context, criteriaMap map[string]interface{}, subject *contact.Context) *relevance.Result {
	if subject == nil {
		subject = &contact.Context{}
	}
	uncertainty := policy.FromContext(ctx, e.policy)
	env := &criteria.Env{Now: clock.Now(), Policy: uncertainty}

	names := make([]string, 0, len(criteriaMap))
	for name := range criteriaMap {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		if !e.passes(ctx, name, criteriaMap[name], subject, env) {
			failed = append(failed, name)
		}
	}

	result := &relevance.Result{
		IsRelevant:       len(failed) == 0,
		ConfidenceScore:  Confidence(len(failed), len(names)),
		ValidationMethod: relevance.MethodRuleBased,
		FailedCriteria:   failed,
		ContextSnapshot:  subject.Snapshot(),
		CheckedAt:        env.Now,
	}
	if len(failed) == 0 {
		result.Reason = "all relevance criteria satisfied"
	} else {
		result.Reason = fmt.Sprintf("failed criteria: %s", strings.Join(failed, ", "))
	}
	return result
}

func (e *Engine) passes(ctx context.Context, name string, expected interface{}, subject *contact.Context, env *criteria.Env) bool {
	fn, ok := e.table.Lookup(name)
	if !ok {
		pass := env.Policy.PassUnknown()
		e.logger.WarnContext(ctx, "unknown relevance criterion", "criterion", name, "pass", pass)
		return pass
	}
	pass, err := fn(expected, subject, env)
	if err != nil {
		e.logger.WarnContext(ctx, "relevance criterion evaluation failed", "criterion", name, "error", err)
		return false
	}
	return pass
}

// Confidence returns 1 - failed/total clamped to [0,1]; zero criteria yield 1.
func Confidence(failed, total int) float64 {
	if total <= 0 {
		return 1
	}
	ret := 1 - float64(failed)/float64(total)
	if ret < 0 {
		return 0
	}
	if ret > 1 {
		return 1
	}
	return ret
}
