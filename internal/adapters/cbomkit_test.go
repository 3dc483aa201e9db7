// File: internal/adapters/cbomkit_test.go
package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

var upgrader = websocket.Upgrader{}

// fakeScanner stands in for a CBOMkit instance: a websocket endpoint that
// plays back scripted progress messages and an HTTP endpoint serving the CBOM.
func fakeScanner(t *testing.T, labels []string, cbomBody string, cbomStatus int) (config.CBOMkitConfig, func()) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/scan/cbombench", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req scanRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		assert.NotEmpty(t, req.ScanURL)

		for _, label := range labels {
			if err := conn.WriteJSON(scanMessage{Type: "LABEL", Message: label}); err != nil {
				return
			}
		}
		// Hold the socket open until the client hangs up.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/api/v1/cbom/last/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(cbomStatus)
		w.Write([]byte(cbomBody))
	})

	server := httptest.NewServer(mux)
	cfg := config.CBOMkitConfig{
		WebSocketURL: "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/scan/cbombench",
		CBOMEndpoint: server.URL + "/api/v1/cbom/last/1",
	}
	return cfg, server.Close
}

func TestCBOMkitGenerate_Success(t *testing.T) {
	labels := []string{
		"Cloning git repository: remote: Counting objects",
		checkoutDoneMessage,
		"Scanning file 1 of 3",
		finishedMessage,
	}
	cfg, shutdown := fakeScanner(t, labels, `[{"bom": {"components": []}}]`, http.StatusOK)
	defer shutdown()

	a := NewCBOMkitAdapter(cfg, zap.NewNop())
	doc, duration, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"bom": {"components": []}}]`, string(doc))
	assert.GreaterOrEqual(t, duration, time.Duration(0))
}

func TestCBOMkitGenerate_TimesOutOnSilentScanner(t *testing.T) {
	// The scanner never reports Finished; the context deadline must win.
	cfg, shutdown := fakeScanner(t, []string{"Cloning git repository: remote: Counting objects"}, `{}`, http.StatusOK)
	defer shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	a := NewCBOMkitAdapter(cfg, zap.NewNop())
	_, _, err := a.Generate(ctx, "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrAdapterTimeout)
}

func TestCBOMkitGenerate_CBOMEndpointFailureIsToolError(t *testing.T) {
	cfg, shutdown := fakeScanner(t, []string{finishedMessage}, "", http.StatusInternalServerError)
	defer shutdown()

	a := NewCBOMkitAdapter(cfg, zap.NewNop())
	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.Equal(t, schemas.OutcomeToolError, schemas.ClassifyOutcome(err))
}

func TestCBOMkitGenerate_InvalidCBOMIsMalformed(t *testing.T) {
	cfg, shutdown := fakeScanner(t, []string{finishedMessage}, `{"truncated":`, http.StatusOK)
	defer shutdown()

	a := NewCBOMkitAdapter(cfg, zap.NewNop())
	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedOutput)
}

func TestCBOMkitGenerate_SerializesConcurrentScans(t *testing.T) {
	// The scanner serves only its latest CBOM, so a second scan must not start
	// before the previous scan's document has been fetched. The server counts
	// scans that are open between socket upgrade and CBOM retrieval.
	var inFlight atomic.Int32
	var overlapped atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/scan/cbombench", func(w http.ResponseWriter, r *http.Request) {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req scanRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
		if err := conn.WriteJSON(scanMessage{Type: "LABEL", Message: finishedMessage}); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	mux.HandleFunc("/api/v1/cbom/last/1", func(w http.ResponseWriter, r *http.Request) {
		inFlight.Add(-1)
		w.Write([]byte(`{"components": []}`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.CBOMkitConfig{
		WebSocketURL: "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/scan/cbombench",
		CBOMEndpoint: server.URL + "/api/v1/cbom/last/1",
	}
	a := NewCBOMkitAdapter(cfg, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "scan sessions overlapped; documents could cross between repositories")
}

func TestCBOMkitGenerate_UnreachableScannerIsToolError(t *testing.T) {
	cfg := config.CBOMkitConfig{
		WebSocketURL: "ws://127.0.0.1:1/v1/scan/cbombench",
		CBOMEndpoint: "http://127.0.0.1:1/api/v1/cbom/last/1",
	}

	a := NewCBOMkitAdapter(cfg, zap.NewNop())
	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.Equal(t, schemas.OutcomeToolError, schemas.ClassifyOutcome(err))
}
