// Package progress defines the update type streamed out of the download,
// verify, and uninstall engines, plus a thread-safe tracker that snapshots
// global byte/file progress under a shared lock (spec.md §9 Design Notes).
package progress

import "sync"

// Update reports progress for one in-flight file operation.
type Update struct {
	FileName        string
	DownloadedBytes uint64
	TotalBytes      uint64
	TotalFiles      int
}

// Tracker accumulates global downloaded-byte progress across concurrently
// processed files and emits Update snapshots. All engines in this module
// (downloader, verifier, uninstaller) share one Tracker per operation so
// progress read by an observer is always a consistent point-in-time view.
type Tracker struct {
	mu              sync.Mutex
	downloadedBytes uint64
	totalBytes      uint64
	totalFiles      int
}

// NewTracker builds a Tracker for an operation touching totalFiles files
// and totalBytes bytes in total.
func NewTracker(totalFiles int, totalBytes uint64) *Tracker {
	return &Tracker{totalFiles: totalFiles, totalBytes: totalBytes}
}

// Add adds n bytes to the global downloaded total and returns an Update
// snapshot for fileName reflecting the new total.
func (t *Tracker) Add(fileName string, n uint64) Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.downloadedBytes += n
	return Update{
		FileName:        fileName,
		DownloadedBytes: t.downloadedBytes,
		TotalBytes:      t.totalBytes,
		TotalFiles:      t.totalFiles,
	}
}

// Complete forces downloaded bytes up to the total (never down) and
// returns the resulting Update — the mandatory final 100% tick engines
// must emit even if rounding left the running sum short (spec.md §4.7,
// §4.8).
func (t *Tracker) Complete(fileName string) Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.downloadedBytes < t.totalBytes {
		t.downloadedBytes = t.totalBytes
	}
	return Update{
		FileName:        fileName,
		DownloadedBytes: t.downloadedBytes,
		TotalBytes:      t.totalBytes,
		TotalFiles:      t.totalFiles,
	}
}

// Snapshot returns an Update reflecting the current global totals without
// mutating them, labeled with fileName (e.g. for a terminal "done" tick).
func (t *Tracker) Snapshot(fileName string) Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Update{
		FileName:        fileName,
		DownloadedBytes: t.downloadedBytes,
		TotalBytes:      t.totalBytes,
		TotalFiles:      t.totalFiles,
	}
}
