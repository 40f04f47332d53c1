// Package cli provides checkpoint inspection commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/models"
	"github.com/mapgrab/mapgrab/internal/render"
)

// newCheckpointCmd creates the 'checkpoint' command group.
func newCheckpointCmd() *cobra.Command {
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Checkpoint operations (show, clear, download)",
		Long: `Commands for the server-side checkpoint: the partial results kept on
disk so an interrupted scrape can be recovered.`,
	}

	checkpointCmd.AddCommand(newCheckpointShowCmd())
	checkpointCmd.AddCommand(newCheckpointClearCmd())
	checkpointCmd.AddCommand(newCheckpointDownloadCmd())

	return checkpointCmd
}

// newCheckpointShowCmd creates the 'checkpoint show' command.
func newCheckpointShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show checkpoint contents",
		Long: `Show the checkpoint summary: total row count and a sample of the first
rows, the same view the recovery table renders.

Example:
  mapgrab checkpoint show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			summary, err := apiClient.GetCheckpoint(GetContext())
			if err != nil {
				return fmt.Errorf("failed to fetch checkpoint: %w", err)
			}

			if asJSON {
				return printJSON(os.Stdout, summary)
			}

			render.Checkpoint(os.Stdout, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of a table")
	return cmd
}

// newCheckpointClearCmd creates the 'checkpoint clear' command.
func newCheckpointClearCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the server-side checkpoint",
		Long: `Delete the checkpoint file on the server. This discards partial results
that have not been downloaded; the command asks for confirmation unless
--force is given.

Example:
  mapgrab checkpoint clear
  mapgrab checkpoint clear --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearCheckpointFlow(os.Stdin, os.Stdout, force, func() (*models.CheckpointSummary, error) {
				ctrl, bus, _, err := newController()
				if err != nil {
					return nil, err
				}
				defer bus.Close()
				return ctrl.ClearCheckpoint(GetContext())
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

// clearCheckpointFlow gates the clear behind a confirmation prompt. A
// declined prompt returns before the clear function runs, so the server is
// never contacted.
func clearCheckpointFlow(in io.Reader, out io.Writer, force bool, clear func() (*models.CheckpointSummary, error)) error {
	if !force {
		ok, err := confirm(in, out, "Delete the checkpoint? Partial results will be lost")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	summary, err := clear()
	if err != nil {
		return err
	}

	render.Checkpoint(out, summary)
	return nil
}

// newCheckpointDownloadCmd creates the 'checkpoint download' command.
func newCheckpointDownloadCmd() *cobra.Command {
	var opts downloadFlags

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the checkpoint file as CSV",
		Long: `Download the server's checkpoint file itself, without waiting for a
task to complete.

Example:
  mapgrab checkpoint download --dir ./results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(constants.CheckpointTaskID, opts)
		},
	}

	opts.register(cmd)
	return cmd
}
