// File: internal/adapters/llm.go
// Description: Shared pieces of the language-model-based generator adapters:
// the CBOM generation prompts and the post-processing that coerces model
// output into a CycloneDX-shaped document.
package adapters

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
	"github.com/xkilldash9x/cbombench/internal/llmutil"
)

// cbomSystemPrompt instructs the model to act as a CBOM generator.
const cbomSystemPrompt = `You are a cryptographic component analyzer. Your task is to analyze a GitHub project and generate a Cryptographic Bill of Materials (CBOM) following the official CycloneDX standard.

Identify all cryptographic components including:
- Cryptographic algorithms (AES, RSA, SHA256, etc.)
- Key management functions
- Hashing functions
- Digital signatures
- Certificates and TLS/SSL usage
- Random number generation
- Encoding/decoding functions

Generate the CBOM in valid CycloneDX JSON format with:
- bomFormat: "CycloneDX"
- specVersion: "1.6"
- Proper component types
- Comprehensive cryptoProperties for each cryptographic component

Please only return the formatted JSON without any additional text or markdown. If there is nothing to report return an empty CBOM.`

// cbomUserPrompt builds the per-repository request.
func cbomUserPrompt(repoURL, branch string) string {
	return fmt.Sprintf("Please generate me a CBOM json for this project, following the official CycloneDX standard on CBOMs.\nProject: %s\nBranch: %s\nPlease only return the formatted JSON.", repoURL, branch)
}

// finalizeLLMDocument turns a raw model response into a usable CBOM document.
// Fenced or chatty responses are unwrapped, bare component arrays are wrapped
// into an object, and the standard envelope fields are backfilled. A response
// with no extractable JSON is malformed output, not a tool error: the model
// did answer, the answer is just unusable.
func finalizeLLMDocument(response string, logger *zap.Logger) (json.RawMessage, error) {
	raw, err := llmutil.ExtractJSON(response)
	if err != nil {
		logger.Warn("LLM response contained no usable JSON", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", schemas.ErrMalformedOutput, err)
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", schemas.ErrMalformedOutput, err)
	}

	doc, ok := value.(map[string]interface{})
	if !ok {
		if list, isList := value.([]interface{}); isList {
			doc = map[string]interface{}{"components": list}
		} else {
			return nil, fmt.Errorf("%w: response is neither an object nor a component list", schemas.ErrMalformedOutput)
		}
	}

	if _, ok := doc["bomFormat"]; !ok {
		doc["bomFormat"] = "CycloneDX"
	}
	if _, ok := doc["specVersion"]; !ok {
		doc["specVersion"] = "1.6"
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode LLM document: %w", err)
	}
	return normalized, nil
}

// NewLLMAdapter selects the configured provider. New providers add a case
// here plus one normalizer mapping; existing variants stay untouched.
func NewLLMAdapter(cfg config.LLMConfig, logger *zap.Logger) (schemas.Adapter, error) {
	switch cfg.Provider {
	case config.ProviderDeepSeek:
		return NewDeepSeekAdapter(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiAdapter(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [%s, %s]",
			cfg.Provider, config.ProviderDeepSeek, config.ProviderGemini)
	}
}
