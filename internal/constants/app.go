package constants

import (
	"time"
)

// Polling
const (
	// TaskPollInterval - default interval between task status polls (2 seconds)
	TaskPollInterval = 2 * time.Second

	// TaskListRefreshInterval - interval for the background active-task
	// list refresh that drives the task-count indicator (5 seconds)
	TaskListRefreshInterval = 5 * time.Second

	// MaxConsecutivePollFailures - consecutive transport failures after
	// which a poll loop gives up and marks the task failed locally.
	// The original dashboard retried forever; a bounded budget keeps a
	// dead backend from stalling loops silently.
	MaxConsecutivePollFailures = 30

	// PollBackoffMax - cap for the exponential backoff applied to the
	// poll period while the backend is unreachable (30 seconds)
	PollBackoffMax = 30 * time.Second
)

// Retry configuration for one-shot API calls
const (
	// APIRetryMax - maximum transport-level retries per request
	APIRetryMax = 3

	// APIRetryWaitMin - initial delay before first retry (500ms)
	APIRetryWaitMin = 500 * time.Millisecond

	// APIRetryWaitMax - maximum delay between retries (10s)
	APIRetryWaitMax = 10 * time.Second
)

// Checkpoint
const (
	// CheckpointSampleLimit - the backend returns at most this many
	// sample rows in a checkpoint summary
	CheckpointSampleLimit = 100

	// CheckpointTaskID - pseudo task id accepted by the download
	// endpoint to fetch the checkpoint file itself
	CheckpointTaskID = "checkpoint"
)

// Downloads
const (
	// DownloadFilenamePrefix - result files are named
	// <prefix><first 8 chars of task id>.csv, matching the backend
	DownloadFilenamePrefix = "maps_scraped_"

	// DownloadIDPrefixLen - number of task-id characters used in the
	// download filename
	DownloadIDPrefixLen = 8

	// DiskSpaceSafetyMargin - extra free space required beyond the
	// reported content length (10%)
	DiskSpaceSafetyMargin = 1.1
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for high-throughput scenarios
	EventBusMaxBuffer = 2048
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (30 seconds)
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// APIContextTimeout - default timeout for one-shot API operations (30 seconds)
	APIContextTimeout = 30 * time.Second
)

// Job configuration defaults
const (
	// DefaultMaxResults - default result-count limit for a scrape job
	DefaultMaxResults = 100

	// DefaultScrollDelay - default delay between result-list scrolls, seconds
	DefaultScrollDelay = 2.0

	// DefaultScrapeMode - default scrape mode selector
	DefaultScrapeMode = "fast"
)
