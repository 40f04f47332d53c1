// Package download streams result files from the scraper server to the
// local filesystem with free-space checks and progress reporting.
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mapgrab/mapgrab/internal/api"
	"github.com/mapgrab/mapgrab/internal/constants"
	"github.com/mapgrab/mapgrab/internal/diskspace"
	"github.com/mapgrab/mapgrab/internal/progress"
	"github.com/mapgrab/mapgrab/internal/util/sanitize"
)

// Options controls how a result file is downloaded.
type Options struct {
	// Dir is the destination directory. Empty means current directory.
	Dir string
	// Filename overrides the derived filename when non-empty.
	Filename string
	// ShowProgress renders a byte progress bar on stderr.
	ShowProgress bool
	// Overwrite allows replacing an existing file.
	Overwrite bool
}

// Filename derives the local filename for a task's results, using a short
// prefix of the task id: maps_scraped_<id8>.csv.
func Filename(taskID string) string {
	id := sanitize.Filename(taskID)
	if len(id) > constants.DownloadIDPrefixLen {
		id = id[:constants.DownloadIDPrefixLen]
	}
	return constants.DownloadFilenamePrefix + id + ".csv"
}

// Results downloads the result CSV for taskID (or the checkpoint pseudo-id)
// and writes it to disk. It returns the path of the written file and the
// number of bytes written.
func Results(ctx context.Context, client *api.Client, taskID string, opts Options) (string, int64, error) {
	name := opts.Filename
	if name == "" {
		name = Filename(taskID)
	} else {
		name = sanitize.Filename(name)
	}
	destPath := filepath.Join(opts.Dir, name)

	if !opts.Overwrite {
		if _, err := os.Stat(destPath); err == nil {
			return "", 0, fmt.Errorf("file already exists: %s (use --force to overwrite)", destPath)
		}
	}

	body, size, err := client.DownloadResults(ctx, taskID)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	if size > 0 {
		if err := diskspace.CheckAvailableSpace(destPath, size, constants.DiskSpaceSafetyMargin); err != nil {
			return "", 0, err
		}
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return "", 0, fmt.Errorf("failed to create download directory: %w", err)
		}
	}

	// Write to a temp file in the same directory and rename on success so
	// a failed transfer never leaves a plausible-looking partial result.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), name+".partial-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	var reader io.Reader = body
	var bar *progress.ByteBar
	if opts.ShowProgress {
		bar = progress.NewByteBar(size, "Downloading "+name)
		reader = progress.NewByteReader(body, bar)
	}

	written, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if bar != nil {
		bar.Finish()
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", 0, fmt.Errorf("failed to move download into place: %w", err)
	}

	return destPath, written, nil
}
