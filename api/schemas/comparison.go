package schemas

import (
	"sort"
	"time"
)

// ToolResult carries the per-tool slice of a repository comparison.
type ToolResult struct {
	ToolID string `json:"tool_id"`
	// Outcome distinguishes "contributed assets", "found nothing" and the
	// failure kinds; failed tools never enter coverage denominators.
	Outcome OutcomeKind `json:"outcome"`
	// AssetCount is the number of distinct canonical keys the tool reported.
	AssetCount int `json:"asset_count"`
	// Coverage is |tool ∩ union| / |union|; 0 when the union is empty.
	Coverage float64 `json:"coverage"`
	// UniqueFinds counts keys reported by this tool and no other.
	UniqueFinds int `json:"unique_finds"`
	// Unrecognized counts assets whose algorithm name missed the alias table.
	Unrecognized int `json:"unrecognized"`
	// DroppedEntries counts raw entries lost during normalization.
	DroppedEntries int `json:"dropped_entries"`
}

// PairOverlap is the Jaccard agreement between two tools on one repository.
// The measure is symmetric: the pair is stored once under the sorted tool ids.
type PairOverlap struct {
	ToolA        string  `json:"tool_a"`
	ToolB        string  `json:"tool_b"`
	Intersection int     `json:"intersection"`
	Union        int     `json:"union"`
	Jaccard      float64 `json:"jaccard"`
}

// PairID produces the canonical identifier for a tool pair, insensitive to
// argument order.
func PairID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// ComparisonRecord is the result of comparing all asset sets produced for one
// repository in one benchmark run. The union of canonical keys acts as the
// implicit reference set; it measures agreement between tools, not
// correctness, since no ground-truth CBOM exists.
type ComparisonRecord struct {
	RepositoryID string       `json:"repository_id"`
	ComparedAt   time.Time    `json:"compared_at"`
	UnionSize    int          `json:"union_size"`
	UnionKeys    []AssetKey   `json:"union_keys"`
	EmptyUnion   bool         `json:"empty_union"`
	Tools        []ToolResult `json:"tools"`
	Pairs        []PairOverlap `json:"pairs"`
	// PrimitiveCounts tallies primitive kinds per tool, e.g.
	// {"cdxgen": {"algorithm": 4, "certificate": 1}}.
	PrimitiveCounts map[string]map[PrimitiveKind]int `json:"primitive_counts,omitempty"`
}

// Tool returns the result entry for a tool id, or nil.
func (c *ComparisonRecord) Tool(id string) *ToolResult {
	for i := range c.Tools {
		if c.Tools[i].ToolID == id {
			return &c.Tools[i]
		}
	}
	return nil
}

// MetricKind distinguishes per-tool aggregates from per-pair aggregates.
type MetricKind string

const (
	MetricTool     MetricKind = "tool"
	MetricToolPair MetricKind = "tool_pair"
)

// MetricRecord is an append-only aggregate over a repository sample for one
// tool or tool pair. Every similarity field is an agreement metric; none of
// them claims precision or recall against a verified reference.
type MetricRecord struct {
	Kind       MetricKind `json:"kind"`
	Subject    string     `json:"subject"`
	SampleID   string     `json:"sample_id"`
	ComputedAt time.Time  `json:"computed_at"`

	Repositories int `json:"repositories"`

	// Reliability: failure kinds are counted here and excluded from the
	// agreement denominators below, so an unreliable tool is not penalized
	// twice.
	Successes        int     `json:"successes"`
	Timeouts         int     `json:"timeouts"`
	ToolErrors       int     `json:"tool_errors"`
	MalformedOutputs int     `json:"malformed_outputs"`
	SuccessRate      float64 `json:"success_rate"`

	// Performance, from successful runs only; failed runs carry no
	// meaningful duration.
	MeanDurationSeconds   float64 `json:"mean_duration_seconds"`
	MedianDurationSeconds float64 `json:"median_duration_seconds"`

	// Agreement, over successful runs only.
	MeanCoverage        float64 `json:"mean_coverage,omitempty"`
	MeanUniqueFindRatio float64 `json:"mean_unique_find_ratio,omitempty"`
	MeanJaccard         float64 `json:"mean_jaccard,omitempty"`

	// Finding volume.
	EmptySets          int     `json:"empty_sets"`
	EmptySetRate       float64 `json:"empty_set_rate"`
	TotalAssets        int     `json:"total_assets"`
	MeanAssetsNonEmpty float64 `json:"mean_assets_non_empty"`
}

// SortKeys orders a slice of asset keys deterministically, for stable output.
func SortKeys(keys []AssetKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}
