package usecase

import (
	"context"

	"github.com/compozy/semtag/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Mock for GitRepository
type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) Path() string {
	return "/repo"
}

func (m *mockGitRepository) TagNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGitRepository) SemanticVersions(ctx context.Context) ([]*domain.Version, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Version), args.Error(1)
}

func (m *mockGitRepository) TagsAtCommit(ctx context.Context, commit string) ([]domain.TagReference, error) {
	args := m.Called(ctx, commit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TagReference), args.Error(1)
}

func (m *mockGitRepository) SemanticVersionTag(ctx context.Context, commit string) (*domain.Version, error) {
	args := m.Called(ctx, commit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Version), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) CreateVersionTag(ctx context.Context, version *domain.Version) (domain.TagReference, error) {
	args := m.Called(ctx, version)
	return args.Get(0).(domain.TagReference), args.Error(1)
}

func (m *mockGitRepository) DeleteTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockGitRepository) PushVersionTag(ctx context.Context, tag domain.TagReference, remote string) error {
	args := m.Called(ctx, tag, remote)
	return args.Error(0)
}

func (m *mockGitRepository) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func versions(names ...string) []*domain.Version {
	return domain.FilterSemanticVersions(names, nil)
}
