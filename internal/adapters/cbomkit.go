// File: internal/adapters/cbomkit.go
// Description: Adapter for the containerized CBOMkit scanner. The scanner is
// driven over a WebSocket: we submit a scan request, follow its progress
// messages, and fetch the finished CBOM from its HTTP API.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

const cbomkitToolID = "cbomkit"

// Progress message the scanner emits once the clone checkout completes. Timing
// starts here so clone bandwidth does not pollute the scan duration.
const checkoutDoneMessage = "Cloning git repository: Checking out files done"

// finishedMessage signals that the CBOM is ready to be fetched.
const finishedMessage = "Finished"

// CBOMkitAdapter talks to a running CBOMkit instance.
type CBOMkitAdapter struct {
	cfg        config.CBOMkitConfig
	httpClient *http.Client
	logger     *zap.Logger

	// The scanner only exposes its latest CBOM, so a scan and its fetch must
	// run as one critical section or concurrent invocations would retrieve
	// each other's documents.
	mu sync.Mutex
}

// scanRequest is the payload CBOMkit expects on the scan socket.
type scanRequest struct {
	ScanURL string `json:"scanUrl"`
	Branch  string `json:"branch"`
}

// scanMessage is one progress update from the scanner.
type scanMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewCBOMkitAdapter creates the scanner adapter.
func NewCBOMkitAdapter(cfg config.CBOMkitConfig, logger *zap.Logger) *CBOMkitAdapter {
	return &CBOMkitAdapter{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger.Named("adapter.cbomkit"),
	}
}

// ID implements schemas.Adapter.
func (a *CBOMkitAdapter) ID() string { return cbomkitToolID }

// Generate implements schemas.Adapter. The duration covers scanning only,
// measured from checkout completion to CBOM retrieval; if the scanner never
// reports checkout completion the full invocation time is used instead.
func (a *CBOMkitAdapter) Generate(ctx context.Context, repoURL, branch string) (json.RawMessage, time.Duration, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	invocationStart := time.Now()

	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, _, err := dialer.DialContext(ctx, a.cfg.WebSocketURL, nil)
	if err != nil {
		return nil, 0, schemas.NewToolError(cbomkitToolID, fmt.Errorf("failed to connect to scanner: %w", err))
	}
	defer conn.Close()

	if err := conn.WriteJSON(scanRequest{ScanURL: repoURL, Branch: branch}); err != nil {
		return nil, 0, schemas.NewToolError(cbomkitToolID, fmt.Errorf("failed to send scan request: %w", err))
	}
	a.logger.Debug("Scan request sent", zap.String("repo", repoURL), zap.String("branch", branch))

	// The read loop runs in its own goroutine so we can honor ctx while
	// blocked on the socket.
	type readResult struct {
		msg scanMessage
		err error
	}
	msgs := make(chan readResult, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			var msg scanMessage
			err := conn.ReadJSON(&msg)
			select {
			case msgs <- readResult{msg: msg, err: err}:
				if err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	var scanStart time.Time
	lastLabel := ""
	for {
		select {
		case <-ctx.Done():
			// Unblock the reader; the deferred Close is not enough if the
			// goroutine already queued a message.
			_ = conn.Close()
			return nil, 0, schemas.ErrAdapterTimeout
		case r := <-msgs:
			if r.err != nil {
				return nil, 0, schemas.NewToolError(cbomkitToolID, fmt.Errorf("scan stream ended unexpectedly: %w", r.err))
			}
			text := r.msg.Message
			if r.msg.Type == "LABEL" && text != lastLabel {
				lastLabel = text
				a.logger.Debug("Scanner progress", zap.String("message", text))
			}
			switch text {
			case checkoutDoneMessage:
				scanStart = time.Now()
			case finishedMessage:
				doc, err := a.fetchCBOM(ctx)
				if err != nil {
					return nil, 0, err
				}
				duration := time.Since(invocationStart)
				if !scanStart.IsZero() {
					duration = time.Since(scanStart)
				}
				return doc, duration, nil
			}
		}
	}
}

// fetchCBOM retrieves the most recent CBOM from the scanner's HTTP API.
func (a *CBOMkitAdapter) fetchCBOM(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.CBOMEndpoint, nil)
	if err != nil {
		return nil, schemas.NewToolError(cbomkitToolID, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, schemas.NewToolError(cbomkitToolID, fmt.Errorf("failed to retrieve CBOM: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, schemas.NewToolError(cbomkitToolID, fmt.Errorf("CBOM endpoint returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, schemas.NewToolError(cbomkitToolID, fmt.Errorf("failed to read CBOM response: %w", err))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: CBOM endpoint returned invalid JSON", schemas.ErrMalformedOutput)
	}
	return json.RawMessage(body), nil
}
