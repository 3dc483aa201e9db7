// File: internal/normalizer/normalizer_test.go
package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

func testRun(t *testing.T, toolID, doc string) *schemas.RunRecord {
	t.Helper()
	return &schemas.RunRecord{
		RunID:        "run-1",
		ToolID:       toolID,
		RepositoryID: "acme/widgets",
		Outcome:      schemas.OutcomeSuccess,
		RawDocument:  json.RawMessage(doc),
	}
}

func TestNormalize_FailedRunYieldsNoAssets(t *testing.T) {
	n := New(zap.NewNop())
	run := &schemas.RunRecord{
		ToolID:       "cdxgen",
		RepositoryID: "acme/widgets",
		Outcome:      schemas.OutcomeTimeout,
	}

	set := n.Normalize(run)

	assert.Equal(t, schemas.OutcomeTimeout, set.Outcome)
	assert.False(t, set.Usable())
	assert.Empty(t, set.Assets)
}

func TestNormalize_AliasResolution(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "AES-128", "type": "cryptographic-asset"},
		{"name": "aes_128", "type": "cryptographic-asset"},
		{"name": "Rijndael", "type": "cryptographic-asset"}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	// AES-128 and aes_128 collapse onto one key; Rijndael resolves to the
	// aes family but carries no size, so it stays distinct.
	require.Len(t, set.Assets, 2)
	keys := set.KeySet()
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "aes", Primitive: schemas.PrimitiveAlgorithm, KeySize: 128, HasKeySize: true})
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "aes", Primitive: schemas.PrimitiveAlgorithm})
	assert.Zero(t, set.Unrecognized)
}

func TestNormalize_KeySizeDistinguishesAssets(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "RSA", "cryptoProperties": {"assetType": "algorithm", "algorithmProperties": {"keySize": 2048}}},
		{"name": "RSA", "cryptoProperties": {"assetType": "algorithm", "algorithmProperties": {"keySize": 4096}}},
		{"name": "RSA", "cryptoProperties": {"assetType": "algorithm"}}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	// 2048, 4096 and size-absent are three distinct canonical keys.
	require.Len(t, set.Assets, 3)
	keys := set.KeySet()
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "rsa", Primitive: schemas.PrimitiveAlgorithm, KeySize: 2048, HasKeySize: true})
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "rsa", Primitive: schemas.PrimitiveAlgorithm, KeySize: 4096, HasKeySize: true})
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "rsa", Primitive: schemas.PrimitiveAlgorithm})
}

func TestNormalize_ExplicitKeySizeOutranksName(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "RSA-2048", "cryptoProperties": {"assetType": "algorithm", "algorithmProperties": {"keySize": 4096}}}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	require.Len(t, set.Assets, 1)
	require.NotNil(t, set.Assets[0].KeySize)
	assert.Equal(t, 4096, *set.Assets[0].KeySize)
}

func TestNormalize_DuplicateKeepsHigherConfidence(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "sha256", "cryptoProperties": {"assetType": "hash"}, "confidence": 0.4, "location": "low.java"},
		{"name": "SHA-256", "cryptoProperties": {"assetType": "hash"}, "confidence": 0.9, "location": "high.java"},
		{"name": "sha-256", "cryptoProperties": {"assetType": "hash"}, "confidence": 0.2, "location": "lowest.java"}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	require.Len(t, set.Assets, 1)
	require.NotNil(t, set.Assets[0].Confidence)
	assert.InDelta(t, 0.9, *set.Assets[0].Confidence, 1e-9)
	assert.Equal(t, "high.java", set.Assets[0].LocationHint)
}

func TestNormalize_UnrecognizedPassthrough(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "Frobnicator-Cipher", "type": "cryptographic-asset"}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	require.Len(t, set.Assets, 1)
	assert.Equal(t, "frobnicator-cipher", set.Assets[0].AlgorithmFamily)
	assert.True(t, set.Assets[0].Unrecognized)
	assert.Equal(t, 1, set.Unrecognized)
}

func TestNormalize_DroppedEntriesCounted(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"type": "cryptographic-asset"},
		"not-an-object",
		{"name": "aes-256", "type": "cryptographic-asset"}
	]}`

	set := n.Normalize(testRun(t, "cdxgen", doc))

	assert.Len(t, set.Assets, 1)
	assert.Equal(t, 2, set.DroppedEntries)
}

func TestNormalize_EmptyComponentsIsGenuineEmpty(t *testing.T) {
	n := New(zap.NewNop())
	set := n.Normalize(testRun(t, "cdxgen", `{"bomFormat": "CycloneDX", "components": []}`))

	assert.True(t, set.Usable())
	assert.Empty(t, set.Assets)
	assert.Zero(t, set.DroppedEntries)
}

func TestNormalize_CBOMkitEnvelope(t *testing.T) {
	n := New(zap.NewNop())
	doc := `[{"bom": {"components": [
		{"name": "RSA", "cryptoProperties": {"assetType": "algorithm", "algorithmProperties": {"keySize": 2048}}},
		{"name": "SHA-256", "cryptoProperties": {"assetType": "hash"}}
	]}}]`

	set := n.Normalize(testRun(t, "cbomkit", doc))

	require.Len(t, set.Assets, 2)
	keys := set.KeySet()
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "rsa", Primitive: schemas.PrimitiveAlgorithm, KeySize: 2048, HasKeySize: true})
	assert.Contains(t, keys, schemas.AssetKey{Algorithm: "sha-256", Primitive: schemas.PrimitiveHash})
}

func TestNormalize_CBOMkitBareDocumentAccepted(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [{"name": "aes-128", "type": "cryptographic-asset"}]}`

	set := n.Normalize(testRun(t, "cbomkit", doc))

	require.Len(t, set.Assets, 1)
	assert.Equal(t, "aes", set.Assets[0].AlgorithmFamily)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := New(zap.NewNop())
	doc := `{"components": [
		{"name": "RSA-2048", "cryptoProperties": {"assetType": "algorithm"}},
		{"name": "weird-thing", "type": "cryptographic-asset"},
		{"name": "SHA-512", "cryptoProperties": {"assetType": "hash"}}
	]}`
	run := testRun(t, "deepseek", doc)

	first := n.Normalize(run)
	second := n.Normalize(run)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("normalization is not idempotent (-first +second):\n%s", diff)
	}
}

func TestResolveAlgorithm(t *testing.T) {
	cases := []struct {
		name       string
		family     string
		keySize    int
		recognized bool
	}{
		{"AES-128", "aes", 128, true},
		{"rsa2048", "rsa", 2048, true},
		{"SHA 256", "sha-256", 0, true},
		{"secp256r1", "ec", 256, true},
		{"3DES", "3des", 0, true},
		{"TLSv1.2", "tls", 0, true},
		{"quantumfoo", "quantumfoo", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			family, size, recognized := resolveAlgorithm(tc.name)
			assert.Equal(t, tc.family, family)
			assert.Equal(t, tc.keySize, size)
			assert.Equal(t, tc.recognized, recognized)
		})
	}
}

func TestParseKeySize(t *testing.T) {
	size, ok := parseKeySize(float64(2048))
	assert.True(t, ok)
	assert.Equal(t, 2048, size)

	size, ok = parseKeySize("4096 bit")
	assert.True(t, ok)
	assert.Equal(t, 4096, size)

	_, ok = parseKeySize("unknown")
	assert.False(t, ok)

	_, ok = parseKeySize(float64(0))
	assert.False(t, ok)

	_, ok = parseKeySize(nil)
	assert.False(t, ok)
}
