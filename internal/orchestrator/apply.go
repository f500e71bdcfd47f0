package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/repository"
	"github.com/compozy/semtag/internal/usecase"
	"go.uber.org/zap"
)

// ApplyConfig contains the inputs of one apply run.
type ApplyConfig struct {
	SourceBranch string
	Pipeline     bool // skip the main-branch safety check
	CIOutput     bool
}

// ApplyOptions wires an ApplyOrchestrator.
type ApplyOptions struct {
	MainBranch string
	Remote     string
	Vocabulary domain.Vocabulary
	Initial    *domain.Version
	Journal    repository.RunJournal
	Out        io.Writer
	Logger     *zap.Logger
	// DeleteTagOnPushFailure removes the tag created by the run when the
	// push fails. Off by default: the tag stays and a rerun exits with
	// ExitAlreadyTagged.
	DeleteTagOnPushFailure bool
}

// ApplyResult describes a successful apply run.
type ApplyResult struct {
	SessionID  string
	Prediction *domain.Prediction
	Tag        domain.TagReference
	Remote     string
}

// ApplyOrchestrator predicts the next version, tags HEAD with it and pushes the tag.
type ApplyOrchestrator struct {
	gitRepo           repository.GitRepository
	journal           repository.RunJournal
	vocab             domain.Vocabulary
	initial           *domain.Version
	mainBranch        string
	remote            string
	deleteOnPushError bool
	out               io.Writer
	log               *zap.Logger
}

// NewApplyOrchestrator creates a new apply orchestrator.
func NewApplyOrchestrator(gitRepo repository.GitRepository, opts ApplyOptions) *ApplyOrchestrator {
	if opts.MainBranch == "" {
		opts.MainBranch = "main"
	}
	if opts.Remote == "" {
		opts.Remote = "origin"
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ApplyOrchestrator{
		gitRepo:           gitRepo,
		journal:           opts.Journal,
		vocab:             opts.Vocabulary,
		initial:           opts.Initial,
		mainBranch:        opts.MainBranch,
		remote:            opts.Remote,
		deleteOnPushError: opts.DeleteTagOnPushFailure,
		out:               opts.Out,
		log:               opts.Logger,
	}
}

// applyRun carries values between steps of one run.
type applyRun struct {
	cfg        ApplyConfig
	prediction *domain.Prediction
	tag        domain.TagReference
}

// Execute runs safety_check, predict, duplicate_check, tag and push. Errors
// are *ExitError values; use ExitCode to map them to a process status.
func (o *ApplyOrchestrator) Execute(ctx context.Context, cfg ApplyConfig) (*ApplyResult, error) {
	executor := NewStepExecutor(o.journal, o.log)
	state := executor.State()
	state.RepoPath = o.gitRepo.Path()
	state.SourceBranch = cfg.SourceBranch
	state.Pipeline = cfg.Pipeline
	run := &applyRun{cfg: cfg}
	o.addSafetyCheckStep(executor, run)
	o.addPredictStep(executor, run)
	o.addDuplicateCheckStep(executor)
	o.addTagStep(executor, run)
	o.addPushStep(executor, run)

	err := executor.Execute(ctx)
	if run.prediction != nil {
		state.Version = run.prediction.Version.String()
	}
	state.TagName = run.tag.Name
	err = newExitError(err)
	executor.Finish(ctx, ExitCode(err))
	if err != nil {
		return nil, err
	}
	o.printCIOutput(cfg.CIOutput, "version=%s\n", run.prediction.Version)
	o.printCIOutput(cfg.CIOutput, "tag=%s\n", run.tag.Name)
	o.printCIOutput(cfg.CIOutput, "pushed=%t\n", true)
	return &ApplyResult{
		SessionID:  executor.SessionID(),
		Prediction: run.prediction,
		Tag:        run.tag,
		Remote:     o.remote,
	}, nil
}

func (o *ApplyOrchestrator) addSafetyCheckStep(executor *StepExecutor, run *applyRun) {
	executor.AddStep(Step{
		Name: "Check main branch",
		Type: domain.StepSafetyCheck,
		Skip: run.cfg.Pipeline,
		Execute: func(ctx context.Context) (map[string]any, error) {
			branch, err := o.gitRepo.GetCurrentBranch(ctx)
			if errors.Is(err, domain.ErrDetachedHead) {
				return nil, fmt.Errorf("%w: repository %s: %w", domain.ErrNotOnMainBranch, o.gitRepo.Path(), err)
			}
			if err != nil {
				return nil, err
			}
			if branch != o.mainBranch {
				return nil, fmt.Errorf("%w: repository %s is on %q, expected %q",
					domain.ErrNotOnMainBranch, o.gitRepo.Path(), branch, o.mainBranch)
			}
			return map[string]any{"branch": branch}, nil
		},
	})
}

func (o *ApplyOrchestrator) addPredictStep(executor *StepExecutor, run *applyRun) {
	uc := &usecase.PredictVersionUseCase{Tags: o.gitRepo, Vocabulary: o.vocab, Initial: o.initial}
	executor.AddStep(Step{
		Name: "Predict version",
		Type: domain.StepPredict,
		Execute: func(ctx context.Context) (map[string]any, error) {
			prediction, err := uc.Execute(ctx, run.cfg.SourceBranch)
			if err != nil {
				return nil, fmt.Errorf("cannot predict version for branch %q in %s: %w",
					run.cfg.SourceBranch, o.gitRepo.Path(), err)
			}
			run.prediction = prediction
			o.printStatus(run.cfg.CIOutput, fmt.Sprintf("Predicted version %s for %s", prediction.Version, run.cfg.SourceBranch))
			data := map[string]any{"version": prediction.Version.String(), "breaking": prediction.Breaking}
			if prediction.Latest != nil {
				data["latest"] = prediction.Latest.String()
			}
			return data, nil
		},
	})
}

func (o *ApplyOrchestrator) addDuplicateCheckStep(executor *StepExecutor) {
	uc := &usecase.CheckHeadTagUseCase{GitRepo: o.gitRepo}
	executor.AddStep(Step{
		Name: "Check HEAD tags",
		Type: domain.StepDuplicateCheck,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if err := uc.Execute(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		},
	})
}

func (o *ApplyOrchestrator) addTagStep(executor *StepExecutor, run *applyRun) {
	uc := &usecase.CreateVersionTagUseCase{GitRepo: o.gitRepo}
	step := Step{
		Name: "Create tag",
		Type: domain.StepTag,
		Execute: func(ctx context.Context) (map[string]any, error) {
			ref, err := uc.Execute(ctx, run.prediction.Version)
			if err != nil {
				return nil, err
			}
			run.tag = ref
			o.printStatus(run.cfg.CIOutput, fmt.Sprintf("Tagged %s with %s", shortCommit(ref.Commit), ref.Name))
			return map[string]any{
				"tag":                ref.Name,
				"commit":             ref.Commit,
				"created_in_session": true,
			}, nil
		},
	}
	if o.deleteOnPushError {
		step.Compensate = NewCompensatingActions(o.gitRepo, o.log).DeleteTag
	}
	executor.AddStep(step)
}

func (o *ApplyOrchestrator) addPushStep(executor *StepExecutor, run *applyRun) {
	uc := &usecase.PushVersionTagUseCase{GitRepo: o.gitRepo, Remote: o.remote}
	executor.AddStep(Step{
		Name: "Push tag",
		Type: domain.StepPush,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if err := uc.Execute(ctx, run.tag); err != nil {
				return nil, err
			}
			o.printStatus(run.cfg.CIOutput, fmt.Sprintf("Pushed %s to %s", run.tag.Name, o.remote))
			return map[string]any{"remote": o.remote, "pushed": true}, nil
		},
	})
}

// printCIOutput prints output only in CI mode
func (o *ApplyOrchestrator) printCIOutput(ciOutput bool, format string, args ...any) {
	if ciOutput {
		fmt.Fprintf(o.out, format, args...)
	}
}

// printStatus prints status messages when not in CI mode
func (o *ApplyOrchestrator) printStatus(ciOutput bool, message string) {
	if !ciOutput {
		fmt.Fprintln(o.out, message)
	}
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
