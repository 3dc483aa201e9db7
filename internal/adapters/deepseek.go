// File: internal/adapters/deepseek.go
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

const deepseekToolID = "deepseek"

const defaultDeepSeekEndpoint = "https://api.deepseek.com/chat/completions"

// DeepSeekAdapter generates CBOMs through the DeepSeek chat-completions API
// (OpenAI-compatible wire format). Transient HTTP failures are retried with
// exponential backoff.
type DeepSeekAdapter struct {
	cfg        config.LLMConfig
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// -- DeepSeek API request/response structures (internal to this file) --

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewDeepSeekAdapter initializes the adapter.
func NewDeepSeekAdapter(cfg config.LLMConfig, logger *zap.Logger) (*DeepSeekAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required (set DEEPSEEK_API_KEY)")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultDeepSeekEndpoint
	}
	return &DeepSeekAdapter{
		cfg:      cfg,
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("adapter.deepseek"),
	}, nil
}

// ID implements schemas.Adapter.
func (a *DeepSeekAdapter) ID() string { return deepseekToolID }

// Generate implements schemas.Adapter.
func (a *DeepSeekAdapter) Generate(ctx context.Context, repoURL, branch string) (json.RawMessage, time.Duration, error) {
	start := time.Now()

	payload := chatRequest{
		Model: a.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: cbomSystemPrompt},
			{Role: "user", Content: cbomUserPrompt(repoURL, branch)},
		},
		Temperature: a.cfg.Temperature,
		Stream:      false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, schemas.NewToolError(deepseekToolID, fmt.Errorf("failed to marshal request payload: %w", err))
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = a.cfg.MaxElapsed
	b.MaxInterval = 30 * time.Second

	var content string
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

		reqStart := time.Now()
		resp, err := a.httpClient.Do(httpReq)
		if err != nil {
			a.logger.Warn("Network error during LLM request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return a.handleAPIError(resp.StatusCode, respBody)
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("deepseek API returned no choices"))
		}

		a.logger.Info("LLM generation complete (DeepSeek)",
			zap.Duration("duration", time.Since(reqStart)),
			zap.Int("prompt_tokens", parsed.Usage.PromptTokens),
			zap.Int("completion_tokens", parsed.Usage.CompletionTokens),
			zap.Int("total_tokens", parsed.Usage.TotalTokens),
		)
		content = parsed.Choices[0].Message.Content
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		if ctx.Err() != nil {
			return nil, 0, schemas.ErrAdapterTimeout
		}
		return nil, 0, schemas.NewToolError(deepseekToolID, err)
	}

	doc, err := finalizeLLMDocument(content, a.logger)
	if err != nil {
		return nil, time.Since(start), err
	}
	return doc, time.Since(start), nil
}

func (a *DeepSeekAdapter) handleAPIError(statusCode int, body []byte) error {
	a.logger.Error("DeepSeek API returned error status", zap.Int("status", statusCode), zap.ByteString("response", body))
	err := fmt.Errorf("deepseek API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
