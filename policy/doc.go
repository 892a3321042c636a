// Package policy holds the decision defaults applied when validation cannot
// reach a confident verdict and the rules deciding when a human must sign off
// an action. Both are plain values so tests can flip them deterministically.
package policy
