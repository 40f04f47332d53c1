package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// TaskUI manages one progress bar per active task for the multi-task
// watch view. Bars are keyed by task id and abandoned bars are removed
// when their task leaves the active list.
type TaskUI struct {
	progress   *mpb.Progress
	mu         sync.Mutex
	bars       map[string]*taskUIBar
	isTerminal bool
}

type taskUIBar struct {
	bar     *mpb.Bar
	message string
	status  string
	mu      sync.Mutex
}

// NewTaskUI creates the multi-task watch UI.
func NewTaskUI() *TaskUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableANSIOnWindows(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(300*time.Millisecond),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &TaskUI{
		progress:   p,
		bars:       make(map[string]*taskUIBar),
		isTerminal: isTerminal,
	}
}

// Observe updates (creating if needed) the bar for one task.
func (u *TaskUI) Observe(taskID, status string, progress float64, message string) {
	u.mu.Lock()
	tb, ok := u.bars[taskID]
	if !ok {
		tb = &taskUIBar{status: status, message: message}
		tb.bar = u.progress.New(100,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(shortID(taskID), decor.WCSyncSpace),
				decor.Any(func(s decor.Statistics) string {
					tb.mu.Lock()
					defer tb.mu.Unlock()
					return tb.status
				}, decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.Percentage(decor.WCSyncSpace),
				decor.Any(func(s decor.Statistics) string {
					tb.mu.Lock()
					defer tb.mu.Unlock()
					return tb.message
				}, decor.WCSyncSpace),
			),
		)
		u.bars[taskID] = tb
	}
	u.mu.Unlock()

	tb.mu.Lock()
	tb.status = status
	tb.message = message
	tb.mu.Unlock()

	tb.bar.SetCurrent(int64(Percent(progress)))

	if !u.isTerminal {
		fmt.Fprintf(os.Stderr, "%s %s %s %s\n", shortID(taskID), status, FormatPercent(progress), message)
	}
}

// Complete fills and finalizes the bar for a finished task.
func (u *TaskUI) Complete(taskID string) {
	u.mu.Lock()
	tb, ok := u.bars[taskID]
	u.mu.Unlock()
	if !ok {
		return
	}
	tb.bar.SetCurrent(100)
}

// Drop abandons the bar for a task that disappeared from the list.
func (u *TaskUI) Drop(taskID string) {
	u.mu.Lock()
	tb, ok := u.bars[taskID]
	if ok {
		delete(u.bars, taskID)
	}
	u.mu.Unlock()
	if ok {
		tb.bar.Abort(true)
	}
}

// Wait blocks until all bars are done rendering.
func (u *TaskUI) Wait() {
	u.progress.Wait()
}

// Shutdown aborts every remaining bar and waits for the render loop to
// finish. Used when the watch view exits while tasks are still running.
func (u *TaskUI) Shutdown() {
	u.mu.Lock()
	bars := make([]*taskUIBar, 0, len(u.bars))
	for id, tb := range u.bars {
		bars = append(bars, tb)
		delete(u.bars, id)
	}
	u.mu.Unlock()

	for _, tb := range bars {
		tb.bar.Abort(true)
	}
	u.progress.Wait()
}
