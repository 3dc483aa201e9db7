// File: internal/repofinder/finder.go
// Description: Finds candidate GitHub repositories for benchmark runs and
// resolves repository metadata (default branch, sizes). This is the only
// component that talks to the code-hosting API; the orchestrator consumes its
// output as an opaque sequence.
package repofinder

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/cbombench/api/schemas"
	"github.com/xkilldash9x/cbombench/internal/config"
)

// Filter narrows the candidate repository search.
type Filter struct {
	Language  string
	MinSizeKB int
	MaxSizeKB int // 0 means unbounded
	// MinLangKB requires at least this much code in Language, in KB. The
	// search API only filters on total size, so candidates dominated by other
	// languages slip through; a floor > 0 checks each candidate's per-language
	// breakdown before it enters the sample. 0 disables the check.
	MinLangKB  int
	SampleSize int
}

// Finder wraps the GitHub API client with rate limiting.
type Finder struct {
	client  *github.Client
	limiter *rate.Limiter
	cfg     config.GitHubConfig
	logger  *zap.Logger
	// rng is injectable so sampling is deterministic in tests.
	rng *rand.Rand
}

// New creates a Finder using the configured token. The limiter keeps us a
// good citizen against the search API, which has a much lower quota than the
// core API.
func New(cfg config.GitHubConfig, logger *zap.Logger) *Finder {
	client := github.NewClient(nil)
	if cfg.Token != "" {
		client = client.WithAuthToken(cfg.Token)
	}
	return NewWithClient(client, cfg, logger)
}

// NewWithClient builds a Finder around an existing client. Tests use this to
// point at an httptest server.
func NewWithClient(client *github.Client, cfg config.GitHubConfig, logger *zap.Logger) *Finder {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Finder{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cfg:     cfg,
		logger:  logger.Named("repofinder"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Find searches for repositories matching the filter and returns a random
// sample of at most filter.SampleSize entries. Fewer matches than requested is
// not an error; the caller sees whatever was found.
func (f *Finder) Find(ctx context.Context, filter Filter) ([]schemas.Repository, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pushedAfter := time.Now().Add(-f.cfg.PushedWithin).Format("2006-01-02")
	var sizeClause string
	if filter.MaxSizeKB > 0 {
		sizeClause = fmt.Sprintf("size:%d..%d", filter.MinSizeKB, filter.MaxSizeKB)
	} else {
		sizeClause = fmt.Sprintf("size:>%d", filter.MinSizeKB)
	}
	query := fmt.Sprintf("language:%s pushed:>%s %s", filter.Language, pushedAfter, sizeClause)

	pageSize := f.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	opts := &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	f.logger.Debug("Searching repositories", zap.String("query", query))
	result, _, err := f.client.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("repository search failed: %w", err)
	}

	candidates := make([]schemas.Repository, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		if repo.GetCloneURL() == "" {
			continue
		}
		candidates = append(candidates, schemas.Repository{
			ID:       repo.GetFullName(),
			URL:      repo.GetCloneURL(),
			Branch:   repo.GetDefaultBranch(),
			SizeKB:   repo.GetSize(),
			Language: repo.GetLanguage(),
		})
	}

	f.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if filter.MinLangKB > 0 {
		return f.sampleByLanguageSize(ctx, candidates, filter)
	}

	if len(candidates) <= filter.SampleSize {
		f.logger.Info("Fewer repositories matched than requested",
			zap.Int("matched", len(candidates)),
			zap.Int("requested", filter.SampleSize))
		return candidates, nil
	}
	return candidates[:filter.SampleSize], nil
}

// sampleByLanguageSize walks the shuffled candidates, fetching each one's
// per-language breakdown, until enough repositories clear the floor.
// Candidates whose breakdown cannot be fetched are skipped, not fatal.
func (f *Finder) sampleByLanguageSize(ctx context.Context, candidates []schemas.Repository, filter Filter) ([]schemas.Repository, error) {
	sample := make([]schemas.Repository, 0, filter.SampleSize)
	for _, candidate := range candidates {
		if len(sample) == filter.SampleSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		totalKB, langKB, err := f.Sizes(ctx, candidate.URL, filter.Language)
		if err != nil {
			f.logger.Warn("Skipping candidate without a language breakdown",
				zap.String("repo", candidate.ID), zap.Error(err))
			continue
		}
		if langKB < filter.MinLangKB {
			f.logger.Debug("Candidate below language size floor",
				zap.String("repo", candidate.ID), zap.Int("lang_kb", langKB))
			continue
		}
		candidate.SizeKB = totalKB
		candidate.LangKB = langKB
		sample = append(sample, candidate)
	}
	if len(sample) < filter.SampleSize {
		f.logger.Info("Fewer repositories cleared the language size floor than requested",
			zap.Int("matched", len(sample)),
			zap.Int("requested", filter.SampleSize))
	}
	return sample, nil
}

// DefaultBranch implements schemas.BranchResolver.
func (f *Finder) DefaultBranch(ctx context.Context, repoURL string) (string, error) {
	owner, name, err := parseRepoURL(repoURL)
	if err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}
	repo, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, err)
	}
	branch := repo.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}
	return branch, nil
}

// Sizes returns the repository's total size and the size of the given
// language, both in KB. A missing language yields zero, not an error.
func (f *Finder) Sizes(ctx context.Context, repoURL, language string) (totalKB, langKB int, err error) {
	owner, name, err := parseRepoURL(repoURL)
	if err != nil {
		return 0, 0, err
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}
	repo, _, err := f.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, err)
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return 0, 0, err
	}
	languages, _, err := f.client.Repositories.ListLanguages(ctx, owner, name)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list languages for %s/%s: %w", owner, name, err)
	}

	// The languages endpoint reports bytes; repository size is already KB.
	langBytes := languages[capitalize(language)]
	return repo.GetSize(), langBytes / 1024, nil
}

// parseRepoURL extracts owner and repository name from HTTPS or SSH GitHub
// URLs.
func parseRepoURL(repoURL string) (owner, name string, err error) {
	if strings.Contains(repoURL, "git@github.com:") {
		path := strings.SplitN(repoURL, "git@github.com:", 2)[1]
		parts := strings.SplitN(strings.TrimSuffix(path, ".git"), "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("could not parse SSH GitHub URL: %s", repoURL)
		}
		return parts[0], parts[1], nil
	}

	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid repository URL %q: %w", repoURL, err)
	}
	if !strings.Contains(u.Host, "github.com") {
		return "", "", fmt.Errorf("not a GitHub URL: %s", repoURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("could not parse GitHub URL: %s", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
