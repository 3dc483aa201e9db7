package schemas

import (
	"encoding/json"
	"time"
)

// OutcomeKind classifies the result of one adapter invocation.
type OutcomeKind string

const (
	// OutcomeSuccess means the tool returned a parseable JSON document.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeTimeout means the invocation exceeded its wall-clock budget.
	OutcomeTimeout OutcomeKind = "timeout"
	// OutcomeToolError means the tool itself signalled a failure.
	OutcomeToolError OutcomeKind = "tool_error"
	// OutcomeMalformedOutput means the tool claimed success but its output
	// was not usable JSON.
	OutcomeMalformedOutput OutcomeKind = "malformed_output"
)

// IsFailure reports whether the outcome excludes the pair from coverage and
// overlap denominators. Failures still count toward reliability metrics.
func (k OutcomeKind) IsFailure() bool {
	return k == OutcomeTimeout || k == OutcomeToolError || k == OutcomeMalformedOutput
}

// RunRecord captures exactly one attempt to generate a CBOM for a
// (tool, repository) pair. Records are immutable once written; the raw
// document is retained verbatim so a run can be re-normalized later without
// re-invoking the tool.
type RunRecord struct {
	RunID           string          `json:"run_id"`
	ToolID          string          `json:"tool_id"`
	RepositoryID    string          `json:"repository_id"`
	RepositoryURL   string          `json:"repository_url"`
	Branch          string          `json:"branch"`
	StartedAt       time.Time       `json:"started_at"`
	DurationSeconds float64         `json:"duration_seconds"`
	Outcome         OutcomeKind     `json:"outcome"`
	Error           string          `json:"error,omitempty"`
	RawDocument     json.RawMessage `json:"raw_document,omitempty"`
}

// Succeeded reports whether the run produced a usable raw document.
func (r *RunRecord) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}
