package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// TaskBar renders a single task's progress as a terminal bar. On
// non-terminal output it degrades to plain line updates on status
// changes only.
type TaskBar struct {
	bar        *progressbar.ProgressBar
	out        io.Writer
	isTerminal bool
	lastLine   string
}

// NewTaskBar creates a progress bar for one task, scaled 0-100.
func NewTaskBar(taskID string) *TaskBar {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	tb := &TaskBar{
		out:        os.Stderr,
		isTerminal: isTerminal,
	}

	if isTerminal {
		enableANSIOnWindows(os.Stderr)
		tb.bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(shortID(taskID)),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	return tb
}

// Update sets the bar to the given fractional progress and message.
func (t *TaskBar) Update(progress float64, message string) {
	pct := Percent(progress)

	if t.bar != nil {
		if message != "" {
			t.bar.Describe(message)
		}
		_ = t.bar.Set(pct)
		return
	}

	// Non-TTY: only print when the rendered line changes
	line := fmt.Sprintf("%s %s", FormatPercent(progress), message)
	if line != t.lastLine {
		fmt.Fprintln(t.out, line)
		t.lastLine = line
	}
}

// Finish completes the bar.
func (t *TaskBar) Finish() {
	if t.bar != nil {
		_ = t.bar.Finish()
	}
}

// IsTerminal reports whether the bar renders interactively.
func (t *TaskBar) IsTerminal() bool {
	return t.isTerminal
}

func shortID(taskID string) string {
	if len(taskID) > 8 {
		return taskID[:8]
	}
	return taskID
}
