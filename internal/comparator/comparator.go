// File: internal/comparator/comparator.go
// Description: Cross-tool agreement analysis for one repository. With no
// ground-truth CBOM available, the union of every usable tool's canonical
// keys stands in as the reference set: coverage is share-of-union, pairwise
// agreement is Jaccard over key sets. Failed runs are excluded from every
// denominator here; their cost is charged to reliability, not to agreement.
package comparator

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

// Comparator computes per-repository comparison records.
type Comparator struct {
	logger *zap.Logger
}

// New initializes a comparator.
func New(logger *zap.Logger) *Comparator {
	return &Comparator{logger: logger.Named("comparator")}
}

// Compare builds the comparison record for one repository from the asset sets
// its runs produced. Sets with failure outcomes appear in the per-tool results
// (so the record shows who failed) but contribute nothing to the union and
// receive no coverage or pairwise entries.
func (c *Comparator) Compare(repositoryID string, sets []schemas.AssetSet) schemas.ComparisonRecord {
	record := schemas.ComparisonRecord{
		RepositoryID:    repositoryID,
		ComparedAt:      time.Now().UTC(),
		PrimitiveCounts: make(map[string]map[schemas.PrimitiveKind]int),
	}

	// Union over usable sets only.
	union := make(map[schemas.AssetKey]int) // key -> number of tools reporting it
	keysByTool := make(map[string]map[schemas.AssetKey]struct{}, len(sets))
	for i := range sets {
		set := &sets[i]
		if !set.Usable() {
			continue
		}
		keys := set.KeySet()
		keysByTool[set.ToolID] = keys
		for key := range keys {
			union[key]++
		}
	}

	record.UnionSize = len(union)
	record.EmptyUnion = len(union) == 0
	record.UnionKeys = make([]schemas.AssetKey, 0, len(union))
	for key := range union {
		record.UnionKeys = append(record.UnionKeys, key)
	}
	schemas.SortKeys(record.UnionKeys)

	// Per-tool results, in a stable order.
	ordered := make([]*schemas.AssetSet, 0, len(sets))
	for i := range sets {
		ordered = append(ordered, &sets[i])
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ToolID < ordered[j].ToolID })

	for _, set := range ordered {
		result := schemas.ToolResult{
			ToolID:         set.ToolID,
			Outcome:        set.Outcome,
			Unrecognized:   set.Unrecognized,
			DroppedEntries: set.DroppedEntries,
		}
		if keys, ok := keysByTool[set.ToolID]; ok {
			result.AssetCount = len(keys)
			if len(union) > 0 {
				result.Coverage = float64(len(keys)) / float64(len(union))
			}
			for key := range keys {
				if union[key] == 1 {
					result.UniqueFinds++
				}
			}
			record.PrimitiveCounts[set.ToolID] = countPrimitives(set)
		}
		record.Tools = append(record.Tools, result)
	}

	record.Pairs = pairwise(keysByTool)

	c.logger.Debug("Compared repository",
		zap.String("repository", repositoryID),
		zap.Int("union", record.UnionSize),
		zap.Int("tools", len(record.Tools)),
		zap.Int("pairs", len(record.Pairs)),
	)
	return record
}

// pairwise computes the Jaccard overlap for every unordered pair of usable
// tools. Two empty sets agree perfectly (1.0); an empty set against a
// non-empty one is total disagreement (0.0).
func pairwise(keysByTool map[string]map[schemas.AssetKey]struct{}) []schemas.PairOverlap {
	tools := make([]string, 0, len(keysByTool))
	for id := range keysByTool {
		tools = append(tools, id)
	}
	sort.Strings(tools)

	var pairs []schemas.PairOverlap
	for i := 0; i < len(tools); i++ {
		for j := i + 1; j < len(tools); j++ {
			a, b := keysByTool[tools[i]], keysByTool[tools[j]]
			overlap := schemas.PairOverlap{ToolA: tools[i], ToolB: tools[j]}
			for key := range a {
				if _, ok := b[key]; ok {
					overlap.Intersection++
				}
			}
			overlap.Union = len(a) + len(b) - overlap.Intersection
			switch {
			case overlap.Union == 0:
				overlap.Jaccard = 1.0
			default:
				overlap.Jaccard = float64(overlap.Intersection) / float64(overlap.Union)
			}
			pairs = append(pairs, overlap)
		}
	}
	return pairs
}

func countPrimitives(set *schemas.AssetSet) map[schemas.PrimitiveKind]int {
	counts := make(map[schemas.PrimitiveKind]int)
	for key := range set.KeySet() {
		counts[key.Primitive]++
	}
	return counts
}
