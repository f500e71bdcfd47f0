package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/repository"
)

// CreateVersionTagUseCase tags HEAD with a predicted version.
type CreateVersionTagUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case.
func (uc *CreateVersionTagUseCase) Execute(ctx context.Context, version *domain.Version) (domain.TagReference, error) {
	ref, err := uc.GitRepo.CreateVersionTag(ctx, version)
	if err != nil {
		return domain.TagReference{}, fmt.Errorf("failed to create version tag: %w", err)
	}
	return ref, nil
}

// PushVersionTagUseCase publishes a version tag to a remote.
type PushVersionTagUseCase struct {
	GitRepo repository.GitRepository
	Remote  string
}

// Execute runs the use case.
func (uc *PushVersionTagUseCase) Execute(ctx context.Context, tag domain.TagReference) error {
	return uc.GitRepo.PushVersionTag(ctx, tag, uc.Remote)
}
