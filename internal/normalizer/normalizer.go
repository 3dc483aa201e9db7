// File: internal/normalizer/normalizer.go
// Description: Turns raw tool documents into canonical asset sets. Each tool
// family ships a different document shape, so extraction is strategy-per-tool;
// everything downstream of extraction (alias resolution, deduplication, loss
// accounting) is shared. Normalization is pure and idempotent: the same run
// record always yields the same asset set.
package normalizer

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

var jsonit = jsoniter.ConfigCompatibleWithStandardLibrary

// rawEntry is one component pulled out of a tool document before canonical
// resolution.
type rawEntry struct {
	name       string
	kind       schemas.PrimitiveKind
	keySize    *int
	location   string
	confidence *float64
}

// Normalizer converts run records into asset sets.
type Normalizer struct {
	logger *zap.Logger
}

// New initializes a normalizer.
func New(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.Named("normalizer")}
}

// Normalize maps a run record onto its canonical asset set. Failed runs
// produce a set carrying the failure outcome and no assets; they must never
// look like "the tool found nothing".
func (n *Normalizer) Normalize(run *schemas.RunRecord) schemas.AssetSet {
	set := schemas.AssetSet{
		ToolID:       run.ToolID,
		RepositoryID: run.RepositoryID,
		Outcome:      run.Outcome,
	}
	if !run.Succeeded() {
		return set
	}

	entries, dropped := n.extract(run.ToolID, run.RawDocument)
	set.DroppedEntries = dropped

	// Resolve and deduplicate on the canonical key. When duplicates carry
	// confidence scores the highest one wins; a scored duplicate beats an
	// unscored one.
	seen := make(map[schemas.AssetKey]int)
	for _, e := range entries {
		asset, ok := n.resolve(e, run)
		if !ok {
			set.DroppedEntries++
			continue
		}
		if asset.Unrecognized {
			set.Unrecognized++
		}

		key := asset.Key()
		idx, dup := seen[key]
		if !dup {
			seen[key] = len(set.Assets)
			set.Assets = append(set.Assets, asset)
			continue
		}
		if confidenceOf(&asset) > confidenceOf(&set.Assets[idx]) {
			set.Assets[idx] = asset
		}
	}

	n.logger.Debug("Normalized run",
		zap.String("tool", run.ToolID),
		zap.String("repository", run.RepositoryID),
		zap.Int("assets", len(set.Assets)),
		zap.Int("dropped", set.DroppedEntries),
		zap.Int("unrecognized", set.Unrecognized),
	)
	return set
}

// resolve canonicalizes one raw entry. An entry with no algorithm name at all
// carries no identity and is dropped.
func (n *Normalizer) resolve(e rawEntry, run *schemas.RunRecord) (schemas.Asset, bool) {
	family, impliedSize, recognized := resolveAlgorithm(e.name)
	if family == "" {
		return schemas.Asset{}, false
	}

	asset := schemas.Asset{
		AlgorithmFamily:  family,
		PrimitiveKind:    e.kind,
		LocationHint:     e.location,
		Confidence:       e.confidence,
		Unrecognized:     !recognized,
		SourceTool:       run.ToolID,
		SourceRepository: run.RepositoryID,
	}

	// An explicitly reported key size outranks one implied by the name.
	switch {
	case e.keySize != nil:
		asset.KeySize = e.keySize
	case impliedSize > 0:
		size := impliedSize
		asset.KeySize = &size
	}
	return asset, true
}

// confidenceOf orders assets for duplicate resolution; absence ranks below
// any reported score.
func confidenceOf(a *schemas.Asset) float64 {
	if a.Confidence == nil {
		return -1
	}
	return *a.Confidence
}

// extract pulls raw entries out of a tool document using the tool's document
// shape. Unknown tools fall back to the plain CycloneDX shape, which is what
// every current generator besides cbomkit emits.
func (n *Normalizer) extract(toolID string, doc []byte) (entries []rawEntry, dropped int) {
	switch toolID {
	case "cbomkit":
		return n.extractCBOMkit(doc)
	default:
		return n.extractCycloneDX(doc)
	}
}

// extractCycloneDX handles a top-level CycloneDX document: an object with a
// "components" array. A missing or empty array is a legitimate empty CBOM.
func (n *Normalizer) extractCycloneDX(doc []byte) ([]rawEntry, int) {
	var parsed map[string]interface{}
	if err := jsonit.Unmarshal(doc, &parsed); err != nil {
		n.logger.Warn("Document is not a JSON object, treating as empty", zap.Error(err))
		return nil, 1
	}
	return n.extractComponents(parsed)
}

// extractCBOMkit handles the scanner's envelope: a list of scan results, each
// wrapping a CycloneDX document under "bom". Older versions returned the
// document bare, so a plain object is accepted too.
func (n *Normalizer) extractCBOMkit(doc []byte) ([]rawEntry, int) {
	var list []map[string]interface{}
	if err := jsonit.Unmarshal(doc, &list); err == nil {
		var entries []rawEntry
		dropped := 0
		for _, item := range list {
			bom, ok := item["bom"].(map[string]interface{})
			if !ok {
				dropped++
				continue
			}
			e, d := n.extractComponents(bom)
			entries = append(entries, e...)
			dropped += d
		}
		return entries, dropped
	}
	return n.extractCycloneDX(doc)
}

// extractComponents walks a CycloneDX object's components array.
func (n *Normalizer) extractComponents(bom map[string]interface{}) ([]rawEntry, int) {
	raw, ok := bom["components"]
	if !ok || raw == nil {
		return nil, 0
	}
	list, ok := raw.([]interface{})
	if !ok {
		n.logger.Warn("components field is not an array, treating as empty")
		return nil, 1
	}

	var entries []rawEntry
	dropped := 0
	for _, item := range list {
		component, ok := item.(map[string]interface{})
		if !ok {
			dropped++
			continue
		}
		entry, ok := n.extractComponent(component)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, dropped
}

// extractComponent reads one CycloneDX component. The name is the only
// required field; kind, key size, location and confidence are optional and
// pulled from wherever the emitting tool put them.
func (n *Normalizer) extractComponent(component map[string]interface{}) (rawEntry, bool) {
	name := stringField(component, "name")
	if name == "" {
		name = stringField(component, "algorithm")
	}

	entry := rawEntry{
		kind:     schemas.PrimitiveUnknown,
		location: componentLocation(component),
	}

	cryptoProps, _ := component["cryptoProperties"].(map[string]interface{})
	if cryptoProps != nil {
		if kind := stringField(cryptoProps, "assetType"); kind != "" {
			entry.kind = mapPrimitiveKind(kind)
		}
		if algoProps, ok := cryptoProps["algorithmProperties"].(map[string]interface{}); ok {
			if entry.kind == schemas.PrimitiveUnknown {
				if p := stringField(algoProps, "primitive"); p != "" {
					entry.kind = mapPrimitiveKind(p)
				}
			}
			if size, ok := parseKeySize(algoProps["keySize"]); ok {
				entry.keySize = &size
			}
			if name == "" {
				name = stringField(algoProps, "variant")
			}
		}
		if entry.keySize == nil {
			if certProps, ok := cryptoProps["certificateProperties"].(map[string]interface{}); ok {
				if size, ok := parseKeySize(certProps["keySize"]); ok {
					entry.keySize = &size
				}
			}
		}
	}

	if name == "" {
		return rawEntry{}, false
	}
	entry.name = name

	if entry.kind == schemas.PrimitiveUnknown {
		if t := stringField(component, "type"); t == "cryptographic-asset" || t == "crypto-asset" {
			entry.kind = schemas.PrimitiveAlgorithm
		}
	}

	if entry.keySize == nil {
		if size, ok := parseKeySize(component["keySize"]); ok {
			entry.keySize = &size
		}
	}
	if c, ok := component["confidence"].(float64); ok && c >= 0 && c <= 1 {
		entry.confidence = &c
	}
	return entry, true
}

// componentLocation digs out a best-effort source location: CycloneDX
// evidence occurrences first, then the flat fields some tools use.
func componentLocation(component map[string]interface{}) string {
	if evidence, ok := component["evidence"].(map[string]interface{}); ok {
		if occurrences, ok := evidence["occurrences"].([]interface{}); ok && len(occurrences) > 0 {
			if first, ok := occurrences[0].(map[string]interface{}); ok {
				if loc := stringField(first, "location"); loc != "" {
					return loc
				}
			}
		}
	}
	if loc := stringField(component, "location"); loc != "" {
		return loc
	}
	return stringField(component, "bom-ref")
}

// primitiveKinds maps the CycloneDX assetType and algorithm primitive
// vocabularies onto the canonical buckets. Keys are compacted the same way
// algorithm names are, so "block-cipher" and "blockCipher" both land.
var primitiveKinds = map[string]schemas.PrimitiveKind{
	"algorithm":             schemas.PrimitiveAlgorithm,
	"cipher":                schemas.PrimitiveAlgorithm,
	"blockcipher":           schemas.PrimitiveAlgorithm,
	"streamcipher":          schemas.PrimitiveAlgorithm,
	"ae":                    schemas.PrimitiveAlgorithm,
	"kem":                   schemas.PrimitiveAlgorithm,
	"kdf":                   schemas.PrimitiveAlgorithm,
	"keygen":                schemas.PrimitiveAlgorithm,
	"keyagree":              schemas.PrimitiveAlgorithm,
	"keyderive":             schemas.PrimitiveAlgorithm,
	"drbg":                  schemas.PrimitiveAlgorithm,
	"hash":                  schemas.PrimitiveHash,
	"mac":                   schemas.PrimitiveHash,
	"digest":                schemas.PrimitiveHash,
	"signature":             schemas.PrimitiveSignature,
	"sign":                  schemas.PrimitiveSignature,
	"key":                   schemas.PrimitiveKey,
	"privatekey":            schemas.PrimitiveKey,
	"publickey":             schemas.PrimitiveKey,
	"secretkey":             schemas.PrimitiveKey,
	"certificate":           schemas.PrimitiveCertificate,
	"protocol":              schemas.PrimitiveProtocol,
	"relatedcryptomaterial": schemas.PrimitiveMaterial,
}

func mapPrimitiveKind(s string) schemas.PrimitiveKind {
	if kind, ok := primitiveKinds[compact(s)]; ok {
		return kind
	}
	return schemas.PrimitiveUnknown
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
