package repository

import (
	"context"

	"github.com/compozy/semtag/internal/domain"
)

// GitRepository defines the tag operations performed on a local repository.
type GitRepository interface {
	Path() string
	TagNames(ctx context.Context) ([]string, error)
	SemanticVersions(ctx context.Context) ([]*domain.Version, error)
	TagsAtCommit(ctx context.Context, commit string) ([]domain.TagReference, error)
	SemanticVersionTag(ctx context.Context, commit string) (*domain.Version, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateVersionTag(ctx context.Context, version *domain.Version) (domain.TagReference, error)
	DeleteTag(ctx context.Context, tag string) error
	PushVersionTag(ctx context.Context, tag domain.TagReference, remote string) error
	GetCurrentBranch(ctx context.Context) (string, error)
	GetHeadCommit(ctx context.Context) (string, error)
}
