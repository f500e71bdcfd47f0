package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/semtag/internal/repository"
	"go.uber.org/zap"
)

// CompensatingActions provides idempotent undo operations for apply workflow steps
type CompensatingActions struct {
	gitRepo repository.GitRepository
	log     *zap.Logger
}

// NewCompensatingActions creates a new compensating actions handler
func NewCompensatingActions(gitRepo repository.GitRepository, log *zap.Logger) *CompensatingActions {
	if log == nil {
		log = zap.NewNop()
	}
	return &CompensatingActions{gitRepo: gitRepo, log: log}
}

// DeleteTag idempotently removes a local tag created by this run, so a rerun
// is not refused by the duplicate check.
func (ca *CompensatingActions) DeleteTag(ctx context.Context, data map[string]any) error {
	tag, ok := data["tag"].(string)
	if !ok || tag == "" {
		return fmt.Errorf("tag not found in step data")
	}
	if created, _ := data["created_in_session"].(bool); !created {
		ca.log.Info("tag existed before this run, keeping it", zap.String("tag", tag))
		return nil
	}
	exists, err := ca.gitRepo.TagExists(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	if !exists {
		return nil
	}
	return ca.gitRepo.DeleteTag(ctx, tag)
}
