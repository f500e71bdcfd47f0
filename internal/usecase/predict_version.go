package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/semtag/internal/domain"
)

// VersionSource lists the semantic versions already released.
type VersionSource interface {
	SemanticVersions(ctx context.Context) ([]*domain.Version, error)
}

// PredictVersionUseCase contains the logic for the predict command.
type PredictVersionUseCase struct {
	Tags       VersionSource
	Vocabulary domain.Vocabulary
	Initial    *domain.Version
}

// Execute predicts the version a merge of branch would release.
func (uc *PredictVersionUseCase) Execute(ctx context.Context, branch string) (*domain.Prediction, error) {
	existing, err := uc.Tags.SemanticVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing versions: %w", err)
	}
	return domain.Predict(existing, branch, uc.Vocabulary, uc.Initial)
}
