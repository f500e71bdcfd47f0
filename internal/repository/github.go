package repository

import (
	"context"

	"github.com/compozy/semtag/internal/domain"
)

// GithubRepository reads the tags of a repository hosted on GitHub.
type GithubRepository interface {
	Slug() string
	ListTagNames(ctx context.Context) ([]string, error)
	SemanticVersions(ctx context.Context) ([]*domain.Version, error)
}
