package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/viant/actiongate/model/action"
	"github.com/viant/actiongate/tracing"
)

// Option customises a Registry.
type Option func(*Registry)

// WithExecutor registers executor for channel.
func WithExecutor(channel action.Channel, executor Executor) Option {
	return func(r *Registry) {
		r.executors[channel] = executor
	}
}

// WithAuthorizer sets the capability check run before every dispatch.
func WithAuthorizer(authorizer Authorizer) Option {
	return func(r *Registry) {
		r.authorizer = authorizer
	}
}

// WithListener overrides the listener invoked after every dispatch. Passing nil disables it.
func WithListener(listener Listener) Option {
	return func(r *Registry) {
		r.listener = listener
		r.listenerSet = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry dispatches actions to the executor registered for their channel.
// Channels without an executor fall back to the generic one.
type Registry struct {
	mu          sync.RWMutex
	executors   map[action.Channel]Executor
	authorizer  Authorizer
	listener    Listener
	listenerSet bool
	logger      *slog.Logger
}

// Register sets (or replaces) the executor for channel.
func (r *Registry) Register(channel action.Channel, executor Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if executor == nil {
		delete(r.executors, channel)
		return
	}
	r.executors[channel] = executor
}

// Lookup returns the executor serving channel, falling back to the generic executor.
func (r *Registry) Lookup(channel action.Channel) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ret, ok := r.executors[channel]; ok {
		return ret, true
	}
	ret, ok := r.executors[action.ChannelGeneric]
	return ret, ok
}

// Missing lists channels that have no dedicated executor.
func (r *Registry) Missing() []action.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ret []action.Channel
	for _, channel := range action.Channels {
		if _, ok := r.executors[channel]; !ok {
			ret = append(ret, channel)
		}
	}
	return ret
}

// Execute authorizes and dispatches anAction. Executor panics are returned as
// retryable errors.
func (r *Registry) Execute(ctx context.Context, anAction *action.ScheduledAction, traceID string) (err error) {
	if anAction == nil {
		return fmt.Errorf("%w: nil action", ErrInvalidInput)
	}
	channel := anAction.Channel()
	ctx, span := tracing.StartSpan(ctx, "executor."+channel.String(), "CLIENT")
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("executor %v panic: %v", channel, rec)
		}
		if r.listener != nil {
			r.listener(ctx, anAction, traceID, err)
		}
		tracing.EndSpan(span, err)
	}()

	if r.authorizer != nil {
		if authErr := r.authorizer.Authorize(ctx, anAction.AgentID, anAction.ActionType); authErr != nil {
			return fmt.Errorf("%w: agent %v, action %v: %v", ErrUnauthorized, anAction.AgentID, anAction.ActionType, authErr)
		}
	}
	executor, ok := r.Lookup(channel)
	if !ok {
		return fmt.Errorf("%w: %v", ErrExecutorNotFound, channel)
	}
	return executor.Execute(ctx, anAction, traceID)
}

// New creates a registry. Without options every channel is served by a
// printer executor registered as the generic fallback.
func New(options ...Option) *Registry {
	ret := &Registry{
		executors: map[action.Channel]Executor{},
		logger:    slog.Default(),
	}
	for _, option := range options {
		option(ret)
	}
	if !ret.listenerSet {
		ret.listener = LogListener(ret.logger)
	}
	if _, ok := ret.executors[action.ChannelGeneric]; !ok {
		ret.executors[action.ChannelGeneric] = Printer(ret.logger)
	}
	return ret
}

var _ Executor = (*Registry)(nil)
