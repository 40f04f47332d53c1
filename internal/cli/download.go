// Package cli provides the result download command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapgrab/mapgrab/internal/download"
)

// downloadFlags holds the knobs shared by the download commands.
type downloadFlags struct {
	dir      string
	filename string
	force    bool
	quiet    bool
}

func (f *downloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "Destination directory (default: current directory)")
	cmd.Flags().StringVar(&f.filename, "filename", "", "Override the derived filename")
	cmd.Flags().BoolVarP(&f.force, "force", "f", false, "Overwrite an existing file")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Suppress the progress bar")
}

// newDownloadCmd creates the 'download' command.
func newDownloadCmd() *cobra.Command {
	var opts downloadFlags

	cmd := &cobra.Command{
		Use:   "download TASK_ID",
		Short: "Download a task's result file",
		Long: `Download the CSV results of a completed task. The file is written as
maps_scraped_<first 8 chars of the task id>.csv unless --filename is
given.

Example:
  mapgrab download 4f9d2c81-77f2-40b1-a8ff-93f1a1f0c2de --dir ./results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(args[0], opts)
		},
	}

	opts.register(cmd)
	return cmd
}

// runDownload streams one result file to disk.
func runDownload(taskID string, opts downloadFlags) error {
	apiClient, err := getAPIClient()
	if err != nil {
		return err
	}

	path, written, err := download.Results(GetContext(), apiClient, taskID, download.Options{
		Dir:          opts.dir,
		Filename:     opts.filename,
		ShowProgress: !opts.quiet,
		Overwrite:    opts.force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Downloaded %s (%d bytes)\n", path, written)
	return nil
}
