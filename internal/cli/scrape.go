// Package cli scrape commands: start, watch, and stop scrape jobs.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mapgrab/mapgrab/internal/controller"
	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/models"
	"github.com/mapgrab/mapgrab/internal/progress"
)

// newScrapeCmd creates the 'scrape' command group.
func newScrapeCmd() *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape operations (poi, search, watch, stop)",
		Long:  `Commands for starting and controlling scrape jobs on the server.`,
	}

	scrapeCmd.AddCommand(newScrapePOICmd())
	scrapeCmd.AddCommand(newScrapeSearchCmd())
	scrapeCmd.AddCommand(newScrapeWatchCmd())
	scrapeCmd.AddCommand(newScrapeStopCmd())

	return scrapeCmd
}

// jobFlags holds the knobs shared by all start commands.
type jobFlags struct {
	maxResults  int
	scrollDelay float64
	mode        string
	detach      bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "Maximum number of results to collect (0 = server default)")
	cmd.Flags().Float64Var(&f.scrollDelay, "scroll-delay", 0, "Delay between result-list scrolls in seconds (0 = server default)")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Scrape mode (fast or thorough)")
	cmd.Flags().BoolVar(&f.detach, "detach", false, "Start the job and exit without watching it")
}

func (f *jobFlags) apply(jobCfg *models.JobConfig) {
	jobCfg.MaxResults = f.maxResults
	jobCfg.ScrollDelay = f.scrollDelay
	jobCfg.Mode = f.mode
}

// newScrapePOICmd creates the 'scrape poi' command.
func newScrapePOICmd() *cobra.Command {
	var (
		location string
		keywords []string
		radiusKM float64
		flags    jobFlags
	)

	cmd := &cobra.Command{
		Use:   "poi",
		Short: "Start a point-of-interest scrape around a location",
		Long: `Start a scrape job that searches for points of interest around a location.

Example:
  # Scrape restaurants and cafes around Berlin
  mapgrab scrape poi --location "Berlin" --keyword restaurant --keyword cafe

  # Limit to 50 results within 5 km
  mapgrab scrape poi --location "Berlin" --keyword hotel --radius 5 --max-results 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobCfg := &models.JobConfig{
				TaskType: models.TaskTypePOI,
				Location: location,
				Keywords: keywords,
				RadiusKM: radiusKM,
			}
			flags.apply(jobCfg)
			return runScrapeJob(jobCfg, flags.detach)
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "Location to search around (required)")
	cmd.Flags().StringArrayVar(&keywords, "keyword", nil, "POI keyword to search for (repeatable)")
	cmd.Flags().Float64Var(&radiusKM, "radius", 0, "Search radius in kilometers")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("location")

	return cmd
}

// newScrapeSearchCmd creates the 'scrape search' command.
func newScrapeSearchCmd() *cobra.Command {
	var (
		query     string
		searchURL string
		flags     jobFlags
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Start a scrape from a search query or Maps URL",
		Long: `Start a scrape job from a free-form search query or a full Google Maps URL.

Example:
  # Query form; the search URL is built for you
  mapgrab scrape search --query "plumbers in Hamburg"

  # Full URL form
  mapgrab scrape search --url "https://www.google.com/maps/search/plumbers+in+Hamburg"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" && searchURL == "" {
				return fmt.Errorf("either --query or --url is required")
			}
			if query != "" && searchURL != "" {
				return fmt.Errorf("--query and --url are mutually exclusive")
			}
			if searchURL == "" {
				searchURL = models.BuildSearchURL(query)
			}

			jobCfg := &models.JobConfig{
				TaskType:  models.TaskTypeSearch,
				SearchURL: searchURL,
			}
			flags.apply(jobCfg)
			return runScrapeJob(jobCfg, flags.detach)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query, e.g. \"plumbers in Hamburg\"")
	cmd.Flags().StringVar(&searchURL, "url", "", "Full Google Maps search URL")
	flags.register(cmd)

	return cmd
}

// runScrapeJob starts a job and, unless detached, watches it to completion.
func runScrapeJob(jobCfg *models.JobConfig, detach bool) error {
	ctrl, bus, _, err := newController()
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()
	defer bus.Close()

	ctx := GetContext()

	taskID, err := ctrl.StartJob(ctx, jobCfg)
	if err != nil {
		return err
	}

	fmt.Printf("Task ID: %s\n", taskID)

	if detach {
		return nil
	}
	return watchTask(ctx, ctrl, bus, taskID)
}

// newScrapeWatchCmd creates the 'scrape watch' command.
func newScrapeWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch TASK_ID",
		Short: "Watch a running task until it finishes",
		Long: `Attach to a running task and render its progress until it reaches a
terminal status (completed, failed or stopped).

Example:
  mapgrab scrape watch 4f9d2c81-77f2-40b1-a8ff-93f1a1f0c2de`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, _, err := newController()
			if err != nil {
				return err
			}
			defer ctrl.Shutdown()
			defer bus.Close()

			ctx := GetContext()
			ctrl.StartPolling(args[0])
			return watchTask(ctx, ctrl, bus, args[0])
		},
	}
	return cmd
}

// watchTask renders progress events for one task until its poll loop ends.
func watchTask(ctx context.Context, ctrl *controller.Controller, bus *events.Bus, taskID string) error {
	progressCh := bus.Subscribe(events.EventTaskProgress)
	terminalCh := bus.Subscribe(events.EventTaskTerminal)
	errorCh := bus.Subscribe(events.EventTaskError)
	defer bus.Unsubscribe(events.EventTaskProgress, progressCh)
	defer bus.Unsubscribe(events.EventTaskTerminal, terminalCh)
	defer bus.Unsubscribe(events.EventTaskError, errorCh)

	bar := progress.NewTaskBar(taskID)
	defer bar.Finish()

	done := make(chan error, 1)
	go func() {
		done <- ctrl.WaitForTask(ctx, taskID)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-done:
			// The poll loop signals done right after the terminal or error
			// event is buffered, so the final status may still be sitting in
			// a channel. Drain before returning so a failed task never exits
			// clean.
			for {
				select {
				case ev := <-terminalCh:
					if te, ok := ev.(*events.TaskTerminalEvent); ok && te.TaskID == taskID {
						return reportTerminal(bar, taskID, te)
					}
				case ev := <-errorCh:
					if ee, ok := ev.(*events.TaskErrorEvent); ok && ee.TaskID == taskID {
						bar.Finish()
						return fmt.Errorf("%s", ee.Message)
					}
				default:
					return err
				}
			}

		case ev := <-progressCh:
			if pe, ok := ev.(*events.TaskProgressEvent); ok && pe.TaskID == taskID {
				bar.Update(pe.Progress, pe.Message)
			}

		case ev := <-terminalCh:
			if te, ok := ev.(*events.TaskTerminalEvent); ok && te.TaskID == taskID {
				return reportTerminal(bar, taskID, te)
			}

		case ev := <-errorCh:
			if ee, ok := ev.(*events.TaskErrorEvent); ok && ee.TaskID == taskID {
				bar.Finish()
				return fmt.Errorf("%s", ee.Message)
			}
		}
	}
}

// reportTerminal prints the final status line for a task and maps a failed
// status to an error so the command exits non-zero.
func reportTerminal(bar *progress.TaskBar, taskID string, te *events.TaskTerminalEvent) error {
	bar.Finish()
	fmt.Printf("\nTask %s: %s", taskID, te.Status)
	if te.TotalResults > 0 {
		fmt.Printf(" (%d results)", te.TotalResults)
	}
	fmt.Println()
	if te.Status == models.StatusFailed {
		return fmt.Errorf("task failed: %s", te.Message)
	}
	return nil
}

// newScrapeStopCmd creates the 'scrape stop' command.
func newScrapeStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop TASK_ID",
		Short: "Stop a running task",
		Long: `Ask the server to stop a running task. The task winds down on the
server side and reports a "stopped" status once it has.

Example:
  mapgrab scrape stop 4f9d2c81-77f2-40b1-a8ff-93f1a1f0c2de`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, _, err := newController()
			if err != nil {
				return err
			}
			defer bus.Close()

			if err := ctrl.StopTask(GetContext(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Stop requested for task %s\n", args[0])
			return nil
		},
	}
	return cmd
}
