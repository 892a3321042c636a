// Package scheduler executes scheduled actions. A periodic poll picks due
// pending actions in priority order, re-validates their relevance, suppresses
// stale ones in favour of suggested alternatives, parks actions that need a
// human decision and dispatches the rest to channel executors, retrying
// failures with exponential backoff.
//
// Actions live in a mutex-guarded store; every status change is a guarded
// transition, so a poll and a concurrent cancel or approval decision cannot
// both win.
package scheduler
