// Package progress keeps aggregated counters of scheduled actions by
// lifecycle outcome. The scheduler updates a tracker after every transition
// and host applications read consistent snapshots.
package progress
