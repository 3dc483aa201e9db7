// File: internal/adapters/gemini.go
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

const geminiToolID = "gemini"

// GeminiAdapter generates CBOMs through the Gemini API using the official
// genai SDK. The SDK handles transport-level retries; anything that still
// fails is a tool error.
type GeminiAdapter struct {
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewGeminiAdapter initializes the adapter.
func NewGeminiAdapter(cfg config.LLMConfig, logger *zap.Logger) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	return &GeminiAdapter{
		cfg:    cfg,
		logger: logger.Named("adapter.gemini"),
	}, nil
}

// ID implements schemas.Adapter.
func (a *GeminiAdapter) ID() string { return geminiToolID }

// Generate implements schemas.Adapter.
func (a *GeminiAdapter) Generate(ctx context.Context, repoURL, branch string) (json.RawMessage, time.Duration, error) {
	start := time.Now()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  a.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, 0, schemas.NewToolError(geminiToolID, fmt.Errorf("failed to create genai client: %w", err))
	}

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(cbomSystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(a.cfg.Temperature)),
		ResponseMIMEType:  "application/json",
	}

	resp, err := client.Models.GenerateContent(ctx, a.cfg.Model,
		genai.Text(cbomUserPrompt(repoURL, branch)), genCfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, schemas.ErrAdapterTimeout
		}
		return nil, 0, schemas.NewToolError(geminiToolID, fmt.Errorf("generation request failed: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return nil, 0, schemas.NewToolError(geminiToolID, fmt.Errorf("gemini API returned empty content"))
	}

	a.logger.Info("LLM generation complete (Gemini)",
		zap.Duration("duration", time.Since(start)),
		zap.String("model", a.cfg.Model),
	)

	doc, err := finalizeLLMDocument(text, a.logger)
	if err != nil {
		return nil, time.Since(start), err
	}
	return doc, time.Since(start), nil
}
