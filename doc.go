// Package actiongate executes scheduled relationship-management actions on
// behalf of agents without firing actions whose premise has gone stale.
//
// Right before an action runs its relevance is re-validated with rule-based
// criteria and, when the rules are not confident enough, an optional language
// model. Stale actions are suppressed and replaced by suggested alternatives,
// risky ones are parked for a time-bounded human approval, and the rest are
// dispatched to channel executors with exponential-backoff retries.
//
// End-users typically interact with the engine via the Service facade:
//
//	srv, _ := actiongate.New(actiongate.WithExecutor(action.ChannelEmail, mailer))
//	_ = srv.Start(ctx)
//	defer srv.Shutdown(ctx)
//	_, _ = srv.ScheduleAction(ctx, &action.ScheduledAction{ActionType: "SendEmail", ...})
package actiongate
