// Package executor bridges scheduled actions with the side-effecting channel
// implementations (email, SMS, calendar, property, task, generic). Executors are
// registered per channel kind; the registry converts the free-form action
// parameters into each channel's typed input before dispatching.
package executor
