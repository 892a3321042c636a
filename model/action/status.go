package action

// Status represents the lifecycle state of a scheduled action.
type Status string

const (
	StatusPending              Status = "pending"
	StatusRelevanceCheckPassed Status = "relevanceCheckPassed"
	// StatusAwaitingApproval parks an action until a human decision arrives.
	StatusAwaitingApproval Status = "awaitingApproval"
	StatusExecuting        Status = "executing"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusSuppressed       Status = "suppressed"
	StatusCancelled        Status = "cancelled"
)

// IsTerminal reports whether no further transition is expected. Failed is
// terminal only once the scheduler has given up retrying, which it signals
// by leaving the status at failed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSuppressed, StatusCancelled:
		return true
	}
	return false
}

// IsPending reports whether the action still waits for the poll loop.
func (s Status) IsPending() bool {
	return s == StatusPending
}
