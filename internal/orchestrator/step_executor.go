package orchestrator

import (
	"context"
	"fmt"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step represents a single state of the apply workflow
type Step struct {
	Name       string
	Type       domain.StepType
	Skip       bool
	Execute    func(ctx context.Context) (data map[string]any, err error)
	Compensate func(ctx context.Context, data map[string]any) error
}

// StepExecutor runs workflow steps in order, stops at the first failure and
// undoes completed steps that know how to compensate. Steps are never retried.
type StepExecutor struct {
	sessionID string
	journal   repository.RunJournal
	state     *domain.RunState
	steps     []Step
	log       *zap.Logger
}

// NewStepExecutor creates a new step executor. A nil journal disables run recording.
func NewStepExecutor(journal repository.RunJournal, log *zap.Logger) *StepExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	sessionID := uuid.New().String()
	return &StepExecutor{
		sessionID: sessionID,
		journal:   journal,
		state:     domain.NewRunState(sessionID),
		steps:     []Step{},
		log:       log.With(zap.String("session", sessionID)),
	}
}

// AddStep adds a step to the workflow
func (s *StepExecutor) AddStep(step Step) {
	s.steps = append(s.steps, step)
	s.state.AddStep(step.Type)
}

// Execute runs the workflow with compensation on failure
func (s *StepExecutor) Execute(ctx context.Context) error {
	s.state.Status = domain.RunStatusRunning
	s.saveState(ctx)
	for _, step := range s.steps {
		if step.Skip {
			s.log.Debug("skipping step", zap.String("step", step.Name))
			s.state.MarkSkipped(step.Type)
			s.saveState(ctx)
			continue
		}
		if err := s.executeStep(ctx, step); err != nil {
			s.state.MarkFailed(step.Type, err)
			s.saveState(ctx)
			// Create separate context for compensation to ensure it completes
			compensateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CompensationTimeout)
			compensateErr := s.compensate(compensateCtx)
			cancel()
			if compensateErr != nil {
				return fmt.Errorf("step '%s' failed: %w, compensation also failed: %v",
					step.Name, err, compensateErr)
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	s.state.Status = domain.RunStatusDone
	s.saveState(ctx)
	return nil
}

// Finish records the exit code of the run
func (s *StepExecutor) Finish(ctx context.Context, exitCode int) {
	s.state.ExitCode = exitCode
	s.saveState(ctx)
}

func (s *StepExecutor) executeStep(ctx context.Context, step Step) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.log.Debug("starting step", zap.String("step", step.Name))
	s.state.MarkStarted(step.Type)
	s.saveState(ctx)
	data, err := step.Execute(ctx)
	if err != nil {
		return err
	}
	s.state.MarkCompleted(step.Type, data)
	s.saveState(ctx)
	s.log.Debug("completed step", zap.String("step", step.Name))
	return nil
}

// compensate undoes completed steps in reverse order
func (s *StepExecutor) compensate(ctx context.Context) error {
	for _, record := range s.state.CompletedSteps() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("compensation canceled: %w", ctx.Err())
		default:
		}
		step := s.findStepByType(record.Type)
		if step == nil || step.Compensate == nil {
			continue
		}
		s.log.Info("compensating step", zap.String("step", step.Name))
		if err := step.Compensate(ctx, record.Data); err != nil {
			return fmt.Errorf("compensation failed for %s: %w", step.Name, err)
		}
		s.state.MarkCompensated(step.Type)
		s.saveState(ctx)
	}
	return nil
}

func (s *StepExecutor) findStepByType(stepType domain.StepType) *Step {
	for i := range s.steps {
		if s.steps[i].Type == stepType {
			return &s.steps[i]
		}
	}
	return nil
}

// saveState persists the journal; failures are logged and never abort the run
func (s *StepExecutor) saveState(ctx context.Context) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Save(ctx, s.state); err != nil {
		s.log.Warn("failed to save run state", zap.Error(err))
	}
}

// State returns the journal of the run
func (s *StepExecutor) State() *domain.RunState {
	return s.state
}

// SessionID returns the run identifier
func (s *StepExecutor) SessionID() string {
	return s.sessionID
}
