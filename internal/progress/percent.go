// Package progress renders task progress in the terminal: a single bar
// for one watched job, an mpb-based multi-bar view for the active-task
// watcher.
package progress

import (
	"fmt"
	"math"
)

// Percent converts a fractional progress in [0,1] to a whole
// percentage, rounding halves up. Out-of-range values are clamped so a
// misbehaving backend can't render 250% bars.
func Percent(progress float64) int {
	if math.IsNaN(progress) || progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	return int(math.Round(progress * 100))
}

// FormatPercent renders a fractional progress as "NN%".
func FormatPercent(progress float64) string {
	return fmt.Sprintf("%d%%", Percent(progress))
}
