// File: internal/adapters/registry.go
package adapters

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

// Registry maps tool ids to their adapters. It is built once per command
// invocation; adapters themselves are stateless.
type Registry map[string]schemas.Adapter

// NewRegistry wires every supported adapter from configuration. The LLM
// adapter's id depends on the configured provider ("deepseek" or "gemini").
func NewRegistry(cfg config.AdaptersConfig, logger *zap.Logger) (Registry, error) {
	reg := Registry{}

	cbomkit := NewCBOMkitAdapter(cfg.CBOMkit, logger)
	reg[cbomkit.ID()] = cbomkit

	cdxgen := NewCdxgenAdapter(cfg.Cdxgen, logger)
	reg[cdxgen.ID()] = cdxgen

	// The LLM adapter needs credentials; its absence should not prevent
	// benchmarking the other tools.
	llm, err := NewLLMAdapter(cfg.LLM, logger)
	if err != nil {
		logger.Warn("LLM adapter unavailable", zap.Error(err))
	} else {
		reg[llm.ID()] = llm
	}

	logger.Info("Adapters registered", zap.Int("count", len(reg)), zap.Strings("tools", reg.IDs()))
	return reg, nil
}

// Select returns the adapters for the requested kit names, rejecting unknown
// names so a typo fails loudly instead of silently shrinking the benchmark.
func (r Registry) Select(kits []string) ([]schemas.Adapter, error) {
	selected := make([]schemas.Adapter, 0, len(kits))
	for _, kit := range kits {
		adapter, ok := r[strings.ToLower(kit)]
		if !ok {
			return nil, fmt.Errorf("%q is not a valid kit (available: %s)", kit, strings.Join(r.IDs(), ", "))
		}
		selected = append(selected, adapter)
	}
	return selected, nil
}

// IDs lists the registered tool ids, sorted.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
