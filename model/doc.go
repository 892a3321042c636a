// Package model contains the data types shared by the validator, approval
// and scheduler services.
//
//   - action    – scheduled actions, their lifecycle status, priority and channel
//   - contact   – live contact context used to evaluate relevance criteria
//   - relevance – validation requests, verdicts and audit filters
//   - outcome   – fail-safe results that record why a default was used
package model
