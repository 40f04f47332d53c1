// Package render formats checkpoint and task data as terminal tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mapgrab/mapgrab/internal/models"
	"github.com/mapgrab/mapgrab/internal/progress"
	"github.com/mapgrab/mapgrab/internal/util/sanitize"
)

// CheckpointEmptyMessage is shown when no checkpoint data exists.
const CheckpointEmptyMessage = "No checkpoint data found. Completed scrapes will leave recovery data here."

// Checkpoint writes the checkpoint summary: the empty-state message
// when there are no rows, otherwise a table of the sample rows followed
// by the total count line.
func Checkpoint(w io.Writer, summary *models.CheckpointSummary) {
	if summary.Empty() {
		fmt.Fprintln(w, CheckpointEmptyMessage)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Name", "Rating", "Reviews", "Industry", "Status"})

	// Scraped fields come straight from the page; keep each to one line.
	for _, row := range summary.Data {
		t.AppendRow(table.Row{
			sanitize.Field(row.Name),
			row.Rating,
			row.Reviews,
			sanitize.Field(row.Industry),
			sanitize.Field(row.Status),
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()

	fmt.Fprintln(w, CheckpointFooter(len(summary.Data), summary.TotalRows))
}

// CheckpointFooter renders the count line under the checkpoint table.
func CheckpointFooter(shown, total int) string {
	return fmt.Sprintf("Showing first %d rows of %d total", shown, total)
}

// Tasks writes the active-task list with status, progress percent,
// message and result count per row.
func Tasks(w io.Writer, tasks []models.TaskInfo) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No active tasks")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Task", "Status", "Progress", "Message", "Results", "Started"})

	for _, task := range tasks {
		t.AppendRow(table.Row{
			shortID(task.TaskID),
			task.Status,
			progress.FormatPercent(task.Progress),
			truncate(sanitize.Field(task.Message), 48),
			task.TotalResults,
			task.StartedAt,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

// DebugInfo writes the backend's debug view of tasks and files.
func DebugInfo(w io.Writer, info *models.DebugInfo) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Task", "Status", "Results File", "Exists"})
	for id, task := range info.ActiveTasks {
		t.AppendRow(table.Row{shortID(id), task.Status, task.ResultsFile, task.FileExists})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(info.TempFiles) > 0 {
		fmt.Fprintf(w, "Temp files: %s\n", strings.Join(info.TempFiles, ", "))
	}
	for _, f := range info.CheckpointFiles {
		fmt.Fprintf(w, "Checkpoint file: %s (%d bytes)\n", f.Name, f.Size)
	}
}

func shortID(taskID string) string {
	if len(taskID) > 8 {
		return taskID[:8]
	}
	return taskID
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
