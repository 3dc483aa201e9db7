// File: internal/comparator/comparator_test.go
package comparator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
)

func asset(family string, kind schemas.PrimitiveKind, keySize int) schemas.Asset {
	a := schemas.Asset{AlgorithmFamily: family, PrimitiveKind: kind}
	if keySize > 0 {
		a.KeySize = &keySize
	}
	return a
}

func successSet(tool string, assets ...schemas.Asset) schemas.AssetSet {
	return schemas.AssetSet{
		ToolID:       tool,
		RepositoryID: "acme/widgets",
		Outcome:      schemas.OutcomeSuccess,
		Assets:       assets,
	}
}

// Three tools: A found RSA-2048, B found RSA-2048 and AES-128, C timed out.
// The union is {rsa/2048, aes/128}; C must not shrink it or appear in pairs.
func TestCompare_CoverageAgainstUnion(t *testing.T) {
	c := New(zap.NewNop())

	sets := []schemas.AssetSet{
		successSet("tool-a", asset("rsa", schemas.PrimitiveAlgorithm, 2048)),
		successSet("tool-b",
			asset("rsa", schemas.PrimitiveAlgorithm, 2048),
			asset("aes", schemas.PrimitiveAlgorithm, 128)),
		{ToolID: "tool-c", RepositoryID: "acme/widgets", Outcome: schemas.OutcomeTimeout},
	}

	record := c.Compare("acme/widgets", sets)

	assert.Equal(t, 2, record.UnionSize)
	assert.False(t, record.EmptyUnion)

	a := record.Tool("tool-a")
	require.NotNil(t, a)
	assert.InDelta(t, 0.5, a.Coverage, 1e-9)
	assert.Equal(t, 0, a.UniqueFinds)

	b := record.Tool("tool-b")
	require.NotNil(t, b)
	assert.InDelta(t, 1.0, b.Coverage, 1e-9)
	assert.Equal(t, 1, b.UniqueFinds)

	cRes := record.Tool("tool-c")
	require.NotNil(t, cRes)
	assert.Equal(t, schemas.OutcomeTimeout, cRes.Outcome)
	assert.Zero(t, cRes.Coverage)
	assert.Zero(t, cRes.AssetCount)

	require.Len(t, record.Pairs, 1)
	pair := record.Pairs[0]
	assert.Equal(t, "tool-a", pair.ToolA)
	assert.Equal(t, "tool-b", pair.ToolB)
	assert.Equal(t, 1, pair.Intersection)
	assert.Equal(t, 2, pair.Union)
	assert.InDelta(t, 0.5, pair.Jaccard, 1e-9)
}

func TestCompare_EmptyUnion(t *testing.T) {
	c := New(zap.NewNop())
	sets := []schemas.AssetSet{
		successSet("tool-a"),
		successSet("tool-b"),
	}

	record := c.Compare("acme/widgets", sets)

	assert.True(t, record.EmptyUnion)
	assert.Zero(t, record.UnionSize)
	// Both tools agree the repository has nothing: perfect agreement.
	require.Len(t, record.Pairs, 1)
	assert.InDelta(t, 1.0, record.Pairs[0].Jaccard, 1e-9)
	// Coverage of an empty union is 0 by definition.
	assert.Zero(t, record.Tool("tool-a").Coverage)
}

func TestCompare_EmptyAgainstNonEmptyIsZero(t *testing.T) {
	c := New(zap.NewNop())
	sets := []schemas.AssetSet{
		successSet("tool-a", asset("rsa", schemas.PrimitiveAlgorithm, 2048)),
		successSet("tool-b"),
	}

	record := c.Compare("acme/widgets", sets)

	require.Len(t, record.Pairs, 1)
	assert.Zero(t, record.Pairs[0].Jaccard)
}

func TestCompare_JaccardBoundsAndSymmetry(t *testing.T) {
	c := New(zap.NewNop())
	sets := []schemas.AssetSet{
		successSet("x",
			asset("rsa", schemas.PrimitiveAlgorithm, 2048),
			asset("sha-256", schemas.PrimitiveHash, 0)),
		successSet("y",
			asset("sha-256", schemas.PrimitiveHash, 0),
			asset("aes", schemas.PrimitiveAlgorithm, 128),
			asset("ecdsa", schemas.PrimitiveSignature, 0)),
	}

	forward := c.Compare("acme/widgets", sets)
	sets[0], sets[1] = sets[1], sets[0]
	backward := c.Compare("acme/widgets", sets)

	require.Len(t, forward.Pairs, 1)
	require.Len(t, backward.Pairs, 1)
	assert.Equal(t, forward.Pairs[0].Jaccard, backward.Pairs[0].Jaccard)
	assert.GreaterOrEqual(t, forward.Pairs[0].Jaccard, 0.0)
	assert.LessOrEqual(t, forward.Pairs[0].Jaccard, 1.0)
	assert.InDelta(t, 0.25, forward.Pairs[0].Jaccard, 1e-9)
}

func TestCompare_PrimitiveCounts(t *testing.T) {
	c := New(zap.NewNop())
	sets := []schemas.AssetSet{
		successSet("tool-a",
			asset("rsa", schemas.PrimitiveAlgorithm, 2048),
			asset("aes", schemas.PrimitiveAlgorithm, 128),
			asset("sha-256", schemas.PrimitiveHash, 0)),
	}

	record := c.Compare("acme/widgets", sets)

	counts := record.PrimitiveCounts["tool-a"]
	require.NotNil(t, counts)
	assert.Equal(t, 2, counts[schemas.PrimitiveAlgorithm])
	assert.Equal(t, 1, counts[schemas.PrimitiveHash])
}

func TestCompare_UnionKeysSorted(t *testing.T) {
	c := New(zap.NewNop())
	sets := []schemas.AssetSet{
		successSet("tool-a",
			asset("sha-256", schemas.PrimitiveHash, 0),
			asset("aes", schemas.PrimitiveAlgorithm, 128),
			asset("rsa", schemas.PrimitiveAlgorithm, 2048)),
	}

	record := c.Compare("acme/widgets", sets)

	require.Len(t, record.UnionKeys, 3)
	for i := 1; i < len(record.UnionKeys); i++ {
		assert.Less(t, record.UnionKeys[i-1].String(), record.UnionKeys[i].String())
	}
}
