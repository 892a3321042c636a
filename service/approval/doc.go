// Package approval implements the human-in-the-loop gate for scheduled
// actions. It decides whether an action needs sign-off, tracks time-bounded
// approval requests and applies a decision to similar pending requests.
package approval
