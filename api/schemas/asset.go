package schemas

import (
	"fmt"
	"strings"
)

// PrimitiveKind buckets a cryptographic asset by what it is, independent of
// which tool reported it. The values mirror the CycloneDX cryptoProperties
// assetType vocabulary plus a catch-all.
type PrimitiveKind string

const (
	PrimitiveAlgorithm   PrimitiveKind = "algorithm"
	PrimitiveHash        PrimitiveKind = "hash"
	PrimitiveSignature   PrimitiveKind = "signature"
	PrimitiveKey         PrimitiveKind = "key"
	PrimitiveCertificate PrimitiveKind = "certificate"
	PrimitiveProtocol    PrimitiveKind = "protocol"
	PrimitiveMaterial    PrimitiveKind = "related-crypto-material"
	PrimitiveUnknown     PrimitiveKind = "unknown"
)

// Asset is one canonical cryptographic finding extracted from a raw tool
// document. LocationHint and Confidence are descriptive only and never
// participate in equality.
type Asset struct {
	AlgorithmFamily  string        `json:"algorithm_family"`
	PrimitiveKind    PrimitiveKind `json:"primitive_kind"`
	KeySize          *int          `json:"key_size,omitempty"`
	LocationHint     string        `json:"location_hint,omitempty"`
	Confidence       *float64      `json:"confidence,omitempty"`
	Unrecognized     bool          `json:"unrecognized,omitempty"`
	SourceTool       string        `json:"source_tool"`
	SourceRepository string        `json:"source_repository"`
}

// AssetKey is the canonical identity of an asset: lower-cased algorithm
// family, primitive kind, and the key size if one was reported. HasKeySize
// keeps "no key size" distinct from "key size zero"; an asset with a size and
// one without are never equal, so size-blind agreement is impossible.
type AssetKey struct {
	Algorithm  string        `json:"algorithm"`
	Primitive  PrimitiveKind `json:"primitive"`
	KeySize    int           `json:"key_size"`
	HasKeySize bool          `json:"has_key_size"`
}

// Key derives the canonical comparison key for the asset.
func (a *Asset) Key() AssetKey {
	k := AssetKey{
		Algorithm: strings.ToLower(a.AlgorithmFamily),
		Primitive: a.PrimitiveKind,
	}
	if a.KeySize != nil {
		k.KeySize = *a.KeySize
		k.HasKeySize = true
	}
	return k
}

// String renders a stable human-readable form, e.g. "rsa/algorithm/2048".
func (k AssetKey) String() string {
	if k.HasKeySize {
		return fmt.Sprintf("%s/%s/%d", k.Algorithm, k.Primitive, k.KeySize)
	}
	return fmt.Sprintf("%s/%s", k.Algorithm, k.Primitive)
}

// AssetSet is the normalized output of one successful (tool, repository) run.
// An empty Assets slice with OutcomeSuccess is a genuine "tool found nothing";
// any other Outcome is a typed absence and must not be conflated with it.
type AssetSet struct {
	ToolID         string      `json:"tool_id"`
	RepositoryID   string      `json:"repository_id"`
	Outcome        OutcomeKind `json:"outcome"`
	Assets         []Asset     `json:"assets"`
	DroppedEntries int         `json:"dropped_entries"`
	Unrecognized   int         `json:"unrecognized"`
}

// Usable reports whether the set may contribute assets to a comparison.
func (s *AssetSet) Usable() bool { return s.Outcome == OutcomeSuccess }

// KeySet returns the distinct canonical keys present in the set.
func (s *AssetSet) KeySet() map[AssetKey]struct{} {
	keys := make(map[AssetKey]struct{}, len(s.Assets))
	for i := range s.Assets {
		keys[s.Assets[i].Key()] = struct{}{}
	}
	return keys
}
