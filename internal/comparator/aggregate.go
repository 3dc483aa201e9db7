// File: internal/comparator/aggregate.go
// Description: Sample-level aggregation. Folds per-repository comparison
// records and the raw run records into one metric record per tool and per
// tool pair. Reliability counts come from run records so every attempt is
// charged; agreement means are computed over successful runs only.
package comparator

import (
	"sort"
	"time"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

// Aggregate reduces a benchmark sample to metric records. sampleID tags the
// resulting records so interleaved samples in the store stay separable.
func (c *Comparator) Aggregate(sampleID string, comparisons []schemas.ComparisonRecord, runs []schemas.RunRecord) []schemas.MetricRecord {
	now := time.Now().UTC()

	tools := map[string]*toolAccumulator{}
	acc := func(id string) *toolAccumulator {
		a, ok := tools[id]
		if !ok {
			a = &toolAccumulator{}
			tools[id] = a
		}
		return a
	}

	for i := range runs {
		run := &runs[i]
		a := acc(run.ToolID)
		a.repositories++
		// Failed runs report no meaningful duration; including their zeros
		// would drag an unreliable tool's mean toward zero.
		if run.Outcome == schemas.OutcomeSuccess {
			a.durations = append(a.durations, run.DurationSeconds)
		}
		switch run.Outcome {
		case schemas.OutcomeSuccess:
			a.successes++
		case schemas.OutcomeTimeout:
			a.timeouts++
		case schemas.OutcomeToolError:
			a.toolErrors++
		case schemas.OutcomeMalformedOutput:
			a.malformed++
		}
	}

	pairs := map[string]*pairAccumulator{}
	for i := range comparisons {
		cmp := &comparisons[i]
		for j := range cmp.Tools {
			tool := &cmp.Tools[j]
			if tool.Outcome != schemas.OutcomeSuccess {
				continue
			}
			a := acc(tool.ToolID)
			a.coverages = append(a.coverages, tool.Coverage)
			if cmp.UnionSize > 0 {
				a.uniqueRatios = append(a.uniqueRatios, float64(tool.UniqueFinds)/float64(cmp.UnionSize))
			}
			a.totalAssets += tool.AssetCount
			if tool.AssetCount == 0 {
				a.emptySets++
			} else {
				a.nonEmptySets++
			}
		}
		for j := range cmp.Pairs {
			pair := &cmp.Pairs[j]
			id := schemas.PairID(pair.ToolA, pair.ToolB)
			p, ok := pairs[id]
			if !ok {
				p = &pairAccumulator{}
				pairs[id] = p
			}
			p.repositories++
			p.jaccards = append(p.jaccards, pair.Jaccard)
		}
	}

	records := make([]schemas.MetricRecord, 0, len(tools)+len(pairs))
	for _, id := range sortedKeys(tools) {
		a := tools[id]
		record := schemas.MetricRecord{
			Kind:                  schemas.MetricTool,
			Subject:               id,
			SampleID:              sampleID,
			ComputedAt:            now,
			Repositories:          a.repositories,
			Successes:             a.successes,
			Timeouts:              a.timeouts,
			ToolErrors:            a.toolErrors,
			MalformedOutputs:      a.malformed,
			MeanDurationSeconds:   mean(a.durations),
			MedianDurationSeconds: median(a.durations),
			MeanCoverage:          mean(a.coverages),
			MeanUniqueFindRatio:   mean(a.uniqueRatios),
			EmptySets:             a.emptySets,
			TotalAssets:           a.totalAssets,
		}
		if a.repositories > 0 {
			record.SuccessRate = float64(a.successes) / float64(a.repositories)
		}
		if a.successes > 0 {
			record.EmptySetRate = float64(a.emptySets) / float64(a.successes)
		}
		if a.nonEmptySets > 0 {
			record.MeanAssetsNonEmpty = float64(a.totalAssets) / float64(a.nonEmptySets)
		}
		records = append(records, record)
	}

	for _, id := range sortedKeys(pairs) {
		p := pairs[id]
		records = append(records, schemas.MetricRecord{
			Kind:         schemas.MetricToolPair,
			Subject:      id,
			SampleID:     sampleID,
			ComputedAt:   now,
			Repositories: p.repositories,
			MeanJaccard:  mean(p.jaccards),
		})
	}
	return records
}

type toolAccumulator struct {
	repositories int
	successes    int
	timeouts     int
	toolErrors   int
	malformed    int
	durations    []float64
	coverages    []float64
	uniqueRatios []float64
	emptySets    int
	nonEmptySets int
	totalAssets  int
}

type pairAccumulator struct {
	repositories int
	jaccards     []float64
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
