package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/compozy/semtag/internal/domain"
	"github.com/compozy/semtag/internal/repository"
	"github.com/spf13/cobra"
)

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest recorded apply run",
		Long: `Show the journal of the latest apply run (or --session-id). Runs are only
recorded when record_state is enabled.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer(cmd, flags)
			if err != nil {
				return err
			}
			defer c.close()
			journal := c.runJournal()
			var state *domain.RunState
			if sessionID != "" {
				state, err = journal.Load(cmd.Context(), sessionID)
			} else {
				state, err = journal.LoadLatest(cmd.Context())
			}
			if errors.Is(err, repository.ErrRunNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No recorded runs in %s\n", c.stateDir())
				return nil
			}
			if err != nil {
				return err
			}
			printRunState(cmd.OutOrStdout(), state)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "Session to show (latest if not specified)")
	return cmd
}

func printRunState(out io.Writer, state *domain.RunState) {
	fmt.Fprintf(out, "Session:\t%s\n", state.SessionID)
	fmt.Fprintf(out, "Started:\t%s\n", state.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Repository:\t%s\n", state.RepoPath)
	fmt.Fprintf(out, "Branch:\t%s\n", state.SourceBranch)
	fmt.Fprintf(out, "Pipeline:\t%t\n", state.Pipeline)
	if state.Version != "" {
		fmt.Fprintf(out, "Version:\t%s\n", state.Version)
	}
	fmt.Fprintf(out, "Status:\t%s (exit %d)\n", state.Status, state.ExitCode)
	if state.Error != "" {
		fmt.Fprintf(out, "Error:\t%s\n", state.Error)
	}
	for _, step := range state.Steps {
		line := fmt.Sprintf("  %-16s %s", step.Type, step.Status)
		if step.Error != "" {
			line += ": " + step.Error
		}
		fmt.Fprintln(out, line)
	}
}
