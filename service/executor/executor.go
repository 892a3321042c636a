package executor

import (
	"context"
	"log/slog"

	"github.com/viant/actiongate/model/action"
)

// Executor performs the side effect of a scheduled action.
type Executor interface {
	Execute(ctx context.Context, anAction *action.ScheduledAction, traceID string) error
}

// Func adapts a plain function to Executor.
type Func func(ctx context.Context, anAction *action.ScheduledAction, traceID string) error

// Execute calls f.
func (f Func) Execute(ctx context.Context, anAction *action.ScheduledAction, traceID string) error {
	return f(ctx, anAction, traceID)
}

// Typed adapts a handler that takes the channel input I decoded from the action parameters.
func Typed[I any](handler func(ctx context.Context, anAction *action.ScheduledAction, input *I, traceID string) error) Executor {
	return Func(func(ctx context.Context, anAction *action.ScheduledAction, traceID string) error {
		input := new(I)
		if err := Decode(anAction.Parameters, input); err != nil {
			return err
		}
		return handler(ctx, anAction, input, traceID)
	})
}

// Nop executes nothing and always succeeds.
var Nop Executor = Func(func(ctx context.Context, anAction *action.ScheduledAction, traceID string) error {
	return nil
})

// Printer logs the typed channel input instead of delivering it; useful for demos and dry runs.
func Printer(logger *slog.Logger) Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(ctx context.Context, anAction *action.ScheduledAction, traceID string) error {
		channel := anAction.Channel()
		input := newInput(channel)
		if err := Decode(anAction.Parameters, input); err != nil {
			return err
		}
		logger.InfoContext(ctx, "action delivered",
			"channel", channel.String(),
			"actionId", anAction.ID,
			"actionType", anAction.ActionType,
			"contactId", anAction.ContactID,
			"traceId", traceID,
			"input", input)
		return nil
	})
}

// Authorizer checks agent capabilities before an action is executed.
type Authorizer interface {
	Authorize(ctx context.Context, agentID, actionType string) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, agentID, actionType string) error

// Authorize calls f.
func (f AuthorizerFunc) Authorize(ctx context.Context, agentID, actionType string) error {
	return f(ctx, agentID, actionType)
}

// Listener is invoked once an action was dispatched, regardless of whether it failed.
type Listener func(ctx context.Context, anAction *action.ScheduledAction, traceID string, err error)

// LogListener returns a listener that writes every dispatch to logger.
func LogListener(logger *slog.Logger) Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, anAction *action.ScheduledAction, traceID string, err error) {
		if err != nil {
			logger.WarnContext(ctx, "action execution failed", "actionId", anAction.ID, "actionType", anAction.ActionType, "traceId", traceID, "error", err)
			return
		}
		logger.DebugContext(ctx, "action executed", "actionId", anAction.ID, "actionType", anAction.ActionType, "traceId", traceID)
	}
}
