package schemas

import (
	"errors"
	"fmt"
)

// Sentinel errors for the adapter failure taxonomy. The orchestrator maps
// these onto RunRecord outcomes; everything else becomes OutcomeToolError.
var (
	// ErrAdapterTimeout marks an invocation that exceeded its budget. Context
	// deadline errors are treated identically.
	ErrAdapterTimeout = errors.New("adapter invocation timed out")
	// ErrMalformedOutput marks a tool that reported success but produced
	// output that is not usable JSON.
	ErrMalformedOutput = errors.New("adapter produced malformed output")
)

// ToolError wraps a failure signalled by the tool itself, preserving the
// tool's own message for the run record.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// NewToolError builds a ToolError from an underlying cause.
func NewToolError(tool string, cause error) *ToolError {
	return &ToolError{Tool: tool, Message: cause.Error()}
}

// ClassifyOutcome maps an adapter error onto the run outcome taxonomy.
func ClassifyOutcome(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrAdapterTimeout):
		return OutcomeTimeout
	case errors.Is(err, ErrMalformedOutput):
		return OutcomeMalformedOutput
	default:
		return OutcomeToolError
	}
}
