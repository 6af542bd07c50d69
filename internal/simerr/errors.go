// Package simerr defines the machine-readable error taxonomy the engine
// surfaces to callers: validation failures at request time, and runtime
// failures (cancellation, zero deployable capital) during a run.
package simerr

import "fmt"

// ConfigKind identifies a request-time validation failure.
type ConfigKind string

const (
	KindFieldRange     ConfigKind = "FIELD_RANGE"
	KindAllocationSum  ConfigKind = "ALLOCATION_SUM"
	KindUnknownStage   ConfigKind = "UNKNOWN_STAGE"
	KindProbabilities  ConfigKind = "PROBABILITIES"
	KindMnaMixture     ConfigKind = "MNA_MIXTURE"
	KindUnknownOverride ConfigKind = "UNKNOWN_OVERRIDE"
)

// ConfigError is a fatal, request-time validation error. Path points into
// the request payload when the failure can be localized (e.g. a specific
// stage-allocation row); it is empty for whole-request failures.
type ConfigError struct {
	Kind    ConfigKind
	Message string
	Path    string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewConfigError(kind ConfigKind, path, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Kind: kind, Message: fmt.Sprintf(format, args...), Path: path}
}

// RuntimeKind identifies an execution-time failure.
type RuntimeKind string

const (
	KindCancelled           RuntimeKind = "CANCELLED"
	KindNoDeployableCapital RuntimeKind = "NO_DEPLOYABLE_CAPITAL"
)

// RuntimeError is a failure that occurs while running or aggregating
// scenarios, as opposed to while validating the request.
type RuntimeError struct {
	Kind              RuntimeKind
	Message           string
	CompletedScenarios int
}

func (e *RuntimeError) Error() string {
	if e.Kind == KindCancelled {
		return fmt.Sprintf("%s: %s (completed_scenarios=%d)", e.Kind, e.Message, e.CompletedScenarios)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewCancelled(completed int) *RuntimeError {
	return &RuntimeError{Kind: KindCancelled, Message: "scenario run cancelled or timed out", CompletedScenarios: completed}
}

func NewNoDeployableCapital() *RuntimeError {
	return &RuntimeError{Kind: KindNoDeployableCapital, Message: "no scenario produced a deployable-capital observation"}
}
