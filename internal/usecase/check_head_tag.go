package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/repository"
)

// CheckHeadTagUseCase refuses to tag a commit that already carries a version.
type CheckHeadTagUseCase struct {
	GitRepo repository.GitRepository
}

// Execute returns a *domain.AlreadyTaggedError when HEAD is tagged with a
// semantic version. Untagged commits and commits with only other tags pass.
func (uc *CheckHeadTagUseCase) Execute(ctx context.Context) error {
	version, err := uc.GitRepo.SemanticVersionTag(ctx, "")
	switch {
	case errors.Is(err, domain.ErrCommitNotTagged), errors.Is(err, domain.ErrCommitTagNotSemanticVersion):
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect HEAD tags: %w", err)
	}
	commit, err := uc.GitRepo.GetHeadCommit(ctx)
	if err != nil {
		return fmt.Errorf("failed to get HEAD commit: %w", err)
	}
	return &domain.AlreadyTaggedError{Commit: commit, Version: version}
}
