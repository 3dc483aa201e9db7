// File: internal/adapters/llm_test.go
package adapters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

func TestFinalizeLLMDocument_BackfillsEnvelope(t *testing.T) {
	doc, err := finalizeLLMDocument(`{"components": [{"name": "RSA"}]}`, zap.NewNop())
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, "CycloneDX", parsed["bomFormat"])
	assert.Equal(t, "1.6", parsed["specVersion"])
}

func TestFinalizeLLMDocument_PreservesExistingEnvelope(t *testing.T) {
	doc, err := finalizeLLMDocument(`{"bomFormat": "CycloneDX", "specVersion": "1.5", "components": []}`, zap.NewNop())
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, "1.5", parsed["specVersion"])
}

func TestFinalizeLLMDocument_WrapsList(t *testing.T) {
	doc, err := finalizeLLMDocument("```json\n[{\"name\": \"AES\"}]\n```", zap.NewNop())
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Len(t, parsed["components"], 1)
}

func TestFinalizeLLMDocument_RefusalIsMalformed(t *testing.T) {
	_, err := finalizeLLMDocument("I cannot help with that.", zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedOutput)
}

func TestFinalizeLLMDocument_ScalarIsMalformed(t *testing.T) {
	_, err := finalizeLLMDocument(`"just a string"`, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedOutput)
}

func TestNewLLMAdapter_ProviderSelection(t *testing.T) {
	base := config.LLMConfig{Model: "m", APIKey: "k"}

	base.Provider = config.ProviderDeepSeek
	a, err := NewLLMAdapter(base, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "deepseek", a.ID())

	base.Provider = config.ProviderGemini
	a, err = NewLLMAdapter(base, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "gemini", a.ID())

	base.Provider = "openai"
	_, err = NewLLMAdapter(base, zap.NewNop())
	require.Error(t, err)
}
