package cmd

import (
	"github.com/compozy/semtag/internal/orchestrator"
	"github.com/compozy/semtag/internal/repository"
	"github.com/spf13/cobra"
)

func newApplyCmd(flags *rootFlags) *cobra.Command {
	var (
		sourceBranch string
		pipeline     bool
		ciOutput     bool
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Tag HEAD with the predicted version and push the tag",
		Long: `Tag HEAD with the version predicted from the source branch and push the tag.

The workflow refuses to run when:
- the repository is not on the main branch (unless --pipeline is set)
- the source branch prefix is not a known revision type
- HEAD already carries a semantic version tag (exit code 2)

If the push fails, the local tag is kept and a rerun exits with code 2. Set
tagging.delete_on_push_failure to delete it instead.`,
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
			var journal repository.RunJournal
			if c.cfg.RecordState {
				journal = c.runJournal()
			}
			orch := orchestrator.NewApplyOrchestrator(gitRepo, orchestrator.ApplyOptions{
				MainBranch: c.cfg.MainBranch,
				Remote:     c.cfg.RemoteName,
				Vocabulary: c.cfg.Vocabulary(),
				Initial:    initial,
				Journal:    journal,
				Out:        cmd.OutOrStdout(),
				Logger:     c.log,

				DeleteTagOnPushFailure: c.cfg.Tagging.DeleteOnPushFailure,
			})
			_, err = orch.Execute(cmd.Context(), orchestrator.ApplyConfig{
				SourceBranch: sourceBranch,
				Pipeline:     pipeline,
				CIOutput:     ciOutput,
			})
			return err
		},
	}
	cmd.Flags().StringVar(&sourceBranch, "source-branch", "", "Name of the branch being merged")
	cmd.Flags().BoolVar(&pipeline, "pipeline", false, "Skip the main branch check (CI pipelines)")
	cmd.Flags().BoolVar(&ciOutput, "ci-output", false, "Output in CI-friendly format")
	_ = cmd.MarkFlagRequired("source-branch")
	return cmd
}
