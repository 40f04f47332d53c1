//go:build !windows

package progress

import "os"

// enableANSIOnWindows is a no-op on platforms whose terminals support
// ANSI escape sequences natively.
func enableANSIOnWindows(f *os.File) {}
