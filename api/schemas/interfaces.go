package schemas

import (
	"context"
	"encoding/json"
	"time"
)

// Adapter wraps one external CBOM-generation tool behind a uniform, stateless
// capability. Implementations must honor ctx cancellation and must signal
// distinguishable failures (see errors.go) instead of returning a malformed
// success.
type Adapter interface {
	// ID returns the stable tool identifier, e.g. "cbomkit".
	ID() string
	// Generate produces a raw CBOM document for the repository at the given
	// branch and the wall-clock duration of the generation itself.
	Generate(ctx context.Context, repoURL, branch string) (json.RawMessage, time.Duration, error)
}

// Repository identifies one candidate repository as supplied by the
// repository source. Branch may be empty, in which case the orchestrator
// resolves the default branch before any adapter sees the pair.
type Repository struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Branch   string `json:"branch,omitempty"`
	SizeKB   int    `json:"size_kb,omitempty"`
	LangKB   int    `json:"lang_kb,omitempty"`
	Language string `json:"language,omitempty"`
}

// BranchResolver resolves a repository's default branch. Adapters never do
// this themselves.
type BranchResolver interface {
	DefaultBranch(ctx context.Context, repoURL string) (string, error)
}
