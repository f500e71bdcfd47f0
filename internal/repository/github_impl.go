package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/compozy/semtag/internal/config"
	"github.com/compozy/semtag/internal/domain"
	"github.com/google/go-github/v68/github"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	githubPageSize   = 100
	githubRetryCount = 3
	githubRetryBase  = 500 * time.Millisecond
	githubRetryCap   = 10 * time.Second
)

// githubRepository is the implementation of the GithubRepository interface.
type githubRepository struct {
	client  *github.Client
	owner   string
	repo    string
	log     *zap.Logger
	backoff func() retry.Backoff
}

// NewGithubRepository creates a tag reader for owner/repo. An empty token
// uses anonymous access.
func NewGithubRepository(token, owner, repo string, log *zap.Logger) (GithubRepository, error) {
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	httpClient := http.DefaultClient
	if token = strings.TrimSpace(token); token != "" {
		if err := config.ValidateGitHubToken(token); err != nil {
			return nil, fmt.Errorf("invalid GitHub token: %w", err)
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	return newGithubRepository(github.NewClient(httpClient), owner, repo, log), nil
}

func newGithubRepository(client *github.Client, owner, repo string, log *zap.Logger) *githubRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &githubRepository{
		client: client,
		owner:  owner,
		repo:   repo,
		log:    log.With(zap.String("github", owner+"/"+repo)),
		backoff: func() retry.Backoff {
			return retry.WithCappedDuration(githubRetryCap,
				retry.WithMaxRetries(githubRetryCount, retry.NewExponential(githubRetryBase)))
		},
	}
}

// Slug returns owner/repo.
func (r *githubRepository) Slug() string {
	return r.owner + "/" + r.repo
}

// ListTagNames returns every tag name of the repository, following pagination.
func (r *githubRepository) ListTagNames(ctx context.Context) ([]string, error) {
	opts := &github.ListOptions{PerPage: githubPageSize}
	var names []string
	for {
		tags, next, err := r.listTagsPage(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			names = append(names, tag.GetName())
		}
		if next == 0 {
			break
		}
		opts.Page = next
	}
	return names, nil
}

// SemanticVersions returns the hosted tags that parse as semantic versions.
func (r *githubRepository) SemanticVersions(ctx context.Context) ([]*domain.Version, error) {
	names, err := r.ListTagNames(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterSemanticVersions(names, func(name string, err error) {
		r.log.Debug("ignoring tag", zap.String("tag", name), zap.Error(err))
	}), nil
}

func (r *githubRepository) listTagsPage(
	ctx context.Context,
	opts *github.ListOptions,
) ([]*github.RepositoryTag, int, error) {
	var (
		tags []*github.RepositoryTag
		next int
	)
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		page, resp, err := r.client.Repositories.ListTags(ctx, r.owner, r.repo, opts)
		if err != nil {
			if isRetryableGithubError(resp) {
				r.log.Debug("retrying tag listing", zap.Int("page", opts.Page), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		tags = page
		next = resp.NextPage
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tags of %s: %w", r.Slug(), err)
	}
	return tags, next, nil
}

// isRetryableGithubError reports transient failures: no response, rate
// limiting or a server error.
func isRetryableGithubError(resp *github.Response) bool {
	if resp == nil || resp.Response == nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
}
