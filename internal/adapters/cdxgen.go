// File: internal/adapters/cdxgen.go
// Description: Adapter for the command-line CBOM generator. The repository is
// checked out with go-git, the generator binary runs against the working tree,
// and the resulting JSON file is read back. The checkout is excluded from the
// reported duration; only generation time counts.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

const cdxgenToolID = "cdxgen"

// CommandRunner abstracts subprocess execution so tests can fake the
// generator binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// execRunner shells out for real.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var outb, errb bytes.Buffer
	cmd.Stdout = &outb
	cmd.Stderr = &errb
	err := cmd.Run()
	return outb.String(), errb.String(), err
}

// CdxgenAdapter runs the CLI generator against a local checkout.
type CdxgenAdapter struct {
	cfg    config.CdxgenConfig
	runner CommandRunner
	logger *zap.Logger
	// clone is swappable in tests to avoid network access.
	clone func(ctx context.Context, dir, repoURL, branch string) error
}

// NewCdxgenAdapter creates the CLI adapter with the real runner and cloner.
func NewCdxgenAdapter(cfg config.CdxgenConfig, logger *zap.Logger) *CdxgenAdapter {
	a := &CdxgenAdapter{
		cfg:    cfg,
		runner: execRunner{},
		logger: logger.Named("adapter.cdxgen"),
	}
	a.clone = a.gitClone
	return a
}

// NewCdxgenAdapterWithRunner injects a fake runner and cloner. Tests only.
func NewCdxgenAdapterWithRunner(cfg config.CdxgenConfig, logger *zap.Logger, runner CommandRunner,
	clone func(ctx context.Context, dir, repoURL, branch string) error) *CdxgenAdapter {
	a := NewCdxgenAdapter(cfg, logger)
	a.runner = runner
	if clone != nil {
		a.clone = clone
	}
	return a
}

// ID implements schemas.Adapter.
func (a *CdxgenAdapter) ID() string { return cdxgenToolID }

// Generate implements schemas.Adapter.
func (a *CdxgenAdapter) Generate(ctx context.Context, repoURL, branch string) (json.RawMessage, time.Duration, error) {
	workDir, err := os.MkdirTemp(a.cfg.WorkDir, "cbombench-cdxgen-*")
	if err != nil {
		return nil, 0, schemas.NewToolError(cdxgenToolID, fmt.Errorf("failed to create work dir: %w", err))
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			a.logger.Warn("Failed to clean up work dir", zap.String("dir", workDir), zap.Error(rmErr))
		}
	}()

	repoDir := filepath.Join(workDir, "repo")
	a.logger.Debug("Cloning repository", zap.String("repo", repoURL), zap.String("branch", branch))
	if err := a.clone(ctx, repoDir, repoURL, branch); err != nil {
		if ctx.Err() != nil {
			return nil, 0, schemas.ErrAdapterTimeout
		}
		return nil, 0, schemas.NewToolError(cdxgenToolID, fmt.Errorf("clone failed: %w", err))
	}

	outputPath := filepath.Join(workDir, "cbom.json")
	language := a.cfg.Language
	if language == "" {
		language = "java"
	}

	start := time.Now()
	_, stderr, err := a.runner.Run(ctx, a.cfg.Binary, "-t", language, "-o", outputPath, repoDir)
	duration := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, schemas.ErrAdapterTimeout
		}
		return nil, 0, schemas.NewToolError(cdxgenToolID, fmt.Errorf("generator failed: %v (stderr: %s)", err, stderr))
	}

	doc, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, 0, schemas.NewToolError(cdxgenToolID, fmt.Errorf("failed to read generated CBOM: %w", err))
	}
	if !json.Valid(doc) {
		return nil, 0, fmt.Errorf("%w: generator wrote invalid JSON to %s", schemas.ErrMalformedOutput, filepath.Base(outputPath))
	}

	a.logger.Debug("CBOM generated", zap.Duration("duration", duration), zap.Int("bytes", len(doc)))
	return json.RawMessage(doc), duration, nil
}

// gitClone performs a shallow, single-branch checkout.
func (a *CdxgenAdapter) gitClone(ctx context.Context, dir, repoURL, branch string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           repoURL,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Depth:         1,
		Progress:      io.Discard,
	})
	return err
}
