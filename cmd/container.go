package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/compozy/semtag/internal/config"
	"github.com/compozy/semtag/internal/logger"
	"github.com/compozy/semtag/internal/repository"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// container holds all the dependencies for one command invocation.
type container struct {
	cfg    *config.Config
	log    *zap.Logger
	fsRepo repository.FileSystemRepository
}

// newContainer loads configuration, applies flag overrides and builds the logger.
func newContainer(cmd *cobra.Command, flags *rootFlags) (*container, error) {
	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("repo-path") {
		cfg.RepoPath = flags.repoPath
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	return &container{
		cfg:    cfg,
		log:    log,
		fsRepo: repository.FileSystemRepository(afero.NewOsFs()),
	}, nil
}

// gitRepository opens the configured repository once for the invocation.
func (c *container) gitRepository() (repository.GitRepository, error) {
	return repository.NewGitRepository(c.cfg.RepoPath, repository.GitOptions{
		Logger: c.log,
		Token:  c.cfg.GithubToken,
		Tagging: repository.TagOptions{
			Annotated:   c.cfg.Tagging.Annotated,
			Message:     c.cfg.Tagging.Message,
			TaggerName:  c.cfg.Tagging.TaggerName,
			TaggerEmail: c.cfg.Tagging.TaggerEmail,
		},
	})
}

// runJournal returns the run journal, resolved against the repository path.
func (c *container) runJournal() repository.RunJournal {
	return repository.NewRunJournal(c.fsRepo, c.stateDir(), c.cfg.MaxRuns, c.log)
}

func (c *container) stateDir() string {
	if filepath.IsAbs(c.cfg.StateDir) {
		return c.cfg.StateDir
	}
	return filepath.Join(c.cfg.RepoPath, c.cfg.StateDir)
}

// githubRepository creates a tag reader for an owner/repo slug.
func (c *container) githubRepository(slug string) (repository.GithubRepository, error) {
	owner, repo, err := config.ParseGitHubSlug(slug)
	if err != nil {
		return nil, err
	}
	return repository.NewGithubRepository(c.cfg.GithubToken, owner, repo, c.log)
}

func (c *container) close() {
	_ = c.log.Sync()
}
