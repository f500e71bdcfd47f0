package cmd

import (
	"fmt"
	"io"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/usecase"
	"github.com/spf13/cobra"
)

func newPredictCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceBranch string
		ciOutput     bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Print the version a merge of the source branch would release",
		Long: `Print the next semantic version of the repository, derived from its existing
version tags and the prefix of the source branch. Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer(cmd, flags)
			if err != nil {
				return err
			}
			defer c.close()
			gitRepo, err := c.gitRepository()
			if err != nil {
				return err
			}
			initial, err := c.cfg.InitialVersion()
			if err != nil {
				return err
			}
			uc := &usecase.PredictVersionUseCase{
				Tags:       gitRepo,
				Vocabulary: c.cfg.Vocabulary(),
				Initial:    initial,
			}
			prediction, err := uc.Execute(cmd.Context(), sourceBranch)
			if err != nil {
				return fmt.Errorf("cannot predict version for branch %q in %s: %w", sourceBranch, gitRepo.Path(), err)
			}
			printPrediction(cmd.OutOrStdout(), prediction, ciOutput)
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceBranch, "source-branch", "", "Name of the branch being merged")
	cmd.Flags().BoolVar(&ciOutput, "ci-output", false, "Output in CI-friendly format")
	_ = cmd.MarkFlagRequired("source-branch")
	return cmd
}

func printPrediction(out io.Writer, prediction *domain.Prediction, ciOutput bool) {
	if !ciOutput {
		fmt.Fprintln(out, prediction.Version)
		return
	}
	fmt.Fprintf(out, "version=%s\n", prediction.Version)
	latest := ""
	if prediction.Latest != nil {
		latest = prediction.Latest.String()
	}
	fmt.Fprintf(out, "latest=%s\n", latest)
	fmt.Fprintf(out, "bump=%s\n", bumpName(prediction))
}

func bumpName(prediction *domain.Prediction) string {
	switch {
	case prediction.Initial:
		return "initial"
	case prediction.Breaking:
		return "major"
	default:
		return string(prediction.Revision)
	}
}
