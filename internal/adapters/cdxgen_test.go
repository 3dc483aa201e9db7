// File: internal/adapters/cdxgen_test.go
package adapters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

// scriptedRunner fakes the generator binary: it writes the given payload to
// the -o path and returns the scripted error.
type scriptedRunner struct {
	payload string
	err     error
	gotArgs []string
}

func (r *scriptedRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	r.gotArgs = append([]string{name}, args...)
	if r.err != nil {
		return "", "generator blew up", r.err
	}
	// Find the -o argument and write the payload there.
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1], []byte(r.payload), 0o644); err != nil {
				return "", "", err
			}
		}
	}
	return "", "", nil
}

func noopClone(ctx context.Context, dir, repoURL, branch string) error {
	return os.MkdirAll(dir, 0o755)
}

func testCdxgenConfig(t *testing.T) config.CdxgenConfig {
	t.Helper()
	return config.CdxgenConfig{Binary: "cbom", Language: "java", WorkDir: t.TempDir()}
}

func TestCdxgenGenerate_Success(t *testing.T) {
	runner := &scriptedRunner{payload: `{"bomFormat": "CycloneDX", "components": []}`}
	a := NewCdxgenAdapterWithRunner(testCdxgenConfig(t), zap.NewNop(), runner, noopClone)

	doc, duration, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.NoError(t, err)
	assert.JSONEq(t, `{"bomFormat": "CycloneDX", "components": []}`, string(doc))
	assert.GreaterOrEqual(t, duration, time.Duration(0))

	// The binary is invoked as: cbom -t <lang> -o <out> <repoDir>.
	require.Len(t, runner.gotArgs, 6)
	assert.Equal(t, "cbom", runner.gotArgs[0])
	assert.Equal(t, "-t", runner.gotArgs[1])
	assert.Equal(t, "java", runner.gotArgs[2])
	assert.Equal(t, "-o", runner.gotArgs[3])
	assert.Equal(t, "repo", filepath.Base(runner.gotArgs[5]))
}

func TestCdxgenGenerate_InvalidJSONIsMalformed(t *testing.T) {
	runner := &scriptedRunner{payload: `{"components": [` /* truncated */}
	a := NewCdxgenAdapterWithRunner(testCdxgenConfig(t), zap.NewNop(), runner, noopClone)

	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrMalformedOutput)
}

func TestCdxgenGenerate_RunnerFailureIsToolError(t *testing.T) {
	runner := &scriptedRunner{err: errors.New("exit status 2")}
	a := NewCdxgenAdapterWithRunner(testCdxgenConfig(t), zap.NewNop(), runner, noopClone)

	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	var toolErr *schemas.ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, cdxgenToolID, toolErr.Tool)
	assert.Equal(t, schemas.OutcomeToolError, schemas.ClassifyOutcome(err))
}

func TestCdxgenGenerate_CloneFailureIsToolError(t *testing.T) {
	runner := &scriptedRunner{payload: `{}`}
	failingClone := func(ctx context.Context, dir, repoURL, branch string) error {
		return errors.New("authentication required")
	}
	a := NewCdxgenAdapterWithRunner(testCdxgenConfig(t), zap.NewNop(), runner, failingClone)

	_, _, err := a.Generate(context.Background(), "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.Equal(t, schemas.OutcomeToolError, schemas.ClassifyOutcome(err))
}

func TestCdxgenGenerate_CancelledContextIsTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	blockingClone := func(ctx context.Context, dir, repoURL, branch string) error {
		cancel()
		return ctx.Err()
	}
	a := NewCdxgenAdapterWithRunner(testCdxgenConfig(t), zap.NewNop(), &scriptedRunner{}, blockingClone)

	_, _, err := a.Generate(ctx, "https://github.com/acme/widgets", "main")
	require.Error(t, err)
	assert.ErrorIs(t, err, schemas.ErrAdapterTimeout)
}
