package cmd

import (
	"context"

	"github.com/compozy/semtag/pkg/version"
	"github.com/spf13/cobra"
)

// rootFlags are shared by every command and override the config file.
type rootFlags struct {
	configFile string
	repoPath   string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "semtag",
		Short: "Predict and apply semantic version tags from branch names",
		Long: `semtag maps the name of the branch being merged (fix/..., feature/...) to a
semantic version bump, tags HEAD with the next version and pushes the tag.`,
		Version:       version.Summary(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to the config file (default .semtag.yaml)")
	pf.StringVar(&flags.repoPath, "repo-path", "", "Path to the git repository")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(
		newPredictCmd(flags),
		newApplyCmd(flags),
		newRemotePredictCmd(flags),
		newStatusCmd(flags),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the command line with args taken from os.Args.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
