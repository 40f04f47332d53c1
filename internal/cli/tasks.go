// Package cli provides task inspection commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mapgrab/mapgrab/internal/events"
	"github.com/mapgrab/mapgrab/internal/progress"
	"github.com/mapgrab/mapgrab/internal/render"
)

// newTasksCmd creates the 'tasks' command group.
func newTasksCmd() *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Task operations (list, watch, debug)",
		Long:  `Commands for inspecting active tasks on the server.`,
	}

	tasksCmd.AddCommand(newTasksListCmd())
	tasksCmd.AddCommand(newTasksWatchCmd())
	tasksCmd.AddCommand(newTasksDebugCmd())

	return tasksCmd
}

// newTasksListCmd creates the 'tasks list' command.
func newTasksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active tasks",
		Long: `List all tasks the server currently considers active.

Example:
  mapgrab tasks list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			tasks, err := apiClient.ActiveTasks(GetContext())
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}

			if len(tasks) == 0 {
				fmt.Println("No active tasks")
				return nil
			}

			render.Tasks(os.Stdout, tasks)
			return nil
		},
	}
	return cmd
}

// newTasksWatchCmd creates the 'tasks watch' command.
func newTasksWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch all active tasks with live progress bars",
		Long: `Continuously refresh the active-task list and render one progress bar
per task. Press Ctrl+C to stop watching; the tasks keep running on the
server.

Example:
  mapgrab tasks watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, cfg, err := newController()
			if err != nil {
				return err
			}
			defer bus.Close()

			ctx := GetContext()

			listCh := bus.Subscribe(events.EventTaskList)
			countCh := bus.Subscribe(events.EventTaskCount)

			go ctrl.RunTaskMonitor(ctx, cfg.TaskRefreshInterval())

			ui := progress.NewTaskUI()
			defer ui.Shutdown()

			// seen maps task id to its last observed progress, so a task
			// that vanishes between refreshes gets the right send-off.
			seen := make(map[string]float64)
			for {
				select {
				case <-ctx.Done():
					return nil

				case ev := <-countCh:
					if ce, ok := ev.(*events.TaskCountEvent); ok && ce.Count == 0 && len(seen) == 0 {
						fmt.Println("No active tasks; waiting...")
					}

				case ev := <-listCh:
					le, ok := ev.(*events.TaskListEvent)
					if !ok {
						continue
					}
					current := make(map[string]bool, len(le.Tasks))
					for _, t := range le.Tasks {
						current[t.TaskID] = true
						seen[t.TaskID] = t.Progress
						ui.Observe(t.TaskID, t.Status, t.Progress, t.Message)
					}
					// A task that vanished near full progress finished; one
					// that vanished mid-run failed or was stopped, so its
					// bar is abandoned rather than filled in.
					for id, lastProgress := range seen {
						if current[id] {
							continue
						}
						if lastProgress >= 1 {
							ui.Complete(id)
						} else {
							ui.Drop(id)
						}
						delete(seen, id)
					}
				}
			}
		},
	}
	return cmd
}

// newTasksDebugCmd creates the 'tasks debug' command.
func newTasksDebugCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Show the server's internal task registry and result files",
		Long: `Dump the server's internal view of all known tasks, including terminal
ones it has not pruned yet, plus the result files present on its disk.

Example:
  mapgrab tasks debug
  mapgrab tasks debug --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient, err := getAPIClient()
			if err != nil {
				return err
			}

			info, err := apiClient.DebugTasks(GetContext())
			if err != nil {
				return fmt.Errorf("failed to fetch debug info: %w", err)
			}

			if asJSON {
				return printJSON(os.Stdout, info)
			}

			render.DebugInfo(os.Stdout, info)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON instead of a table")
	return cmd
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
