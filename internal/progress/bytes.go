package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// ByteBar renders a byte-count progress bar for file transfers. When the
// total size is unknown (-1) the bar degrades to a spinner.
type ByteBar struct {
	bar *progressbar.ProgressBar
}

// NewByteBar creates a byte progress bar on stderr.
func NewByteBar(total int64, description string) *ByteBar {
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ByteBar{bar: bar}
}

// Add advances the bar by n bytes.
func (b *ByteBar) Add(n int) {
	if b.bar != nil {
		_ = b.bar.Add(n)
	}
}

// Finish completes the bar.
func (b *ByteBar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// ByteReader wraps an io.Reader and advances a ByteBar as data flows
// through it.
type ByteReader struct {
	reader io.Reader
	bar    *ByteBar
}

// NewByteReader creates a progress-reporting reader.
func NewByteReader(reader io.Reader, bar *ByteBar) *ByteReader {
	return &ByteReader{reader: reader, bar: bar}
}

// Read implements io.Reader.
func (r *ByteReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.bar.Add(n)
	}
	return n, err
}
