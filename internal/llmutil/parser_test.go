// File: internal/llmutil/parser_test.go
package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_BareObject(t *testing.T) {
	raw, err := ExtractJSON(`{"components": []}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"components": []}`, string(raw))
}

func TestExtractJSON_FencedObject(t *testing.T) {
	raw, err := ExtractJSON("```json\n{\"bomFormat\": \"CycloneDX\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bomFormat": "CycloneDX"}`, string(raw))
}

func TestExtractJSON_FencedArrayWithoutLanguageTag(t *testing.T) {
	raw, err := ExtractJSON("```\n[{\"name\": \"AES\"}]\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "AES"}]`, string(raw))
}

func TestExtractJSON_ConversationalWrapper(t *testing.T) {
	response := `Sure! Here is the CBOM you asked for:
{"components": [{"name": "RSA-2048"}]}
Let me know if you need anything else.`

	raw, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"components": [{"name": "RSA-2048"}]}`, string(raw))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I am unable to analyze that repository.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid JSON")
}

func TestExtractJSON_TruncatedJSON(t *testing.T) {
	_, err := ExtractJSON(`{"components": [`)
	require.Error(t, err)
}
