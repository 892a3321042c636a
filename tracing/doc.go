// Package tracing wraps OpenTelemetry so the validator and scheduler can open
// spans without importing the upstream packages directly. When no provider is
// installed spans are no-ops and trace identifiers fall back to generated ids.
package tracing
