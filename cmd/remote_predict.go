package cmd

import (
	"fmt"

	"github.com/compozy/semtag/internal/usecase"
	"github.com/spf13/cobra"
)

func newRemotePredictCmd(flags *rootFlags) *cobra.Command {
	var (
		slug         string
		sourceBranch string
		ciOutput     bool
	)
	cmd := &cobra.Command{
		Use:   "remote-predict",
		Short: "Predict the next version from the tags of a GitHub repository",
		Long: `Predict the next version from the tags of a repository hosted on GitHub,
without a local clone. Uses GITHUB_TOKEN when set, anonymous access otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer(cmd, flags)
			if err != nil {
				return err
			}
			defer c.close()
			ghRepo, err := c.githubRepository(slug)
			if err != nil {
				return err
			}
			initial, err := c.cfg.InitialVersion()
			if err != nil {
				return err
			}
			uc := &usecase.PredictVersionUseCase{
				Tags:       ghRepo,
				Vocabulary: c.cfg.Vocabulary(),
				Initial:    initial,
			}
			prediction, err := uc.Execute(cmd.Context(), sourceBranch)
			if err != nil {
				return fmt.Errorf("cannot predict version for branch %q in %s: %w", sourceBranch, ghRepo.Slug(), err)
			}
			printPrediction(cmd.OutOrStdout(), prediction, ciOutput)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "github", "", "GitHub repository as owner/repo")
	cmd.Flags().StringVar(&sourceBranch, "source-branch", "", "Name of the branch being merged")
	cmd.Flags().BoolVar(&ciOutput, "ci-output", false, "Output in CI-friendly format")
	_ = cmd.MarkFlagRequired("github")
	_ = cmd.MarkFlagRequired("source-branch")
	return cmd
}
