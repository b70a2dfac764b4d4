// Package downloader implements the parallel file-assembly engine (spec.md
// §4.7): reconstruct every file in a manifest under an install directory,
// bounded concurrency, global progress, per-file retry, and cooperative
// cancellation. Grounding: original_source downloader.rs download_game /
// download_file_attempt, generalized from tokio::Semaphore to
// golang.org/x/sync/semaphore.Weighted.
package downloader

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/realitylauncher/splash/internal/assembler"
	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/manifestcodec"
	"github.com/realitylauncher/splash/internal/progress"
)

const (
	defaultWorkers  = 10
	maxFileRetries  = 3
	retryPollPeriod = 100 * time.Millisecond
)

// Options configures a Run.
type Options struct {
	Workers int // 0 uses defaultWorkers
}

// OnProgress is invoked for every emitted progress.Update, including the
// final 100% tick.
type OnProgress func(progress.Update)

// Run reconstructs every file in manifest under the assembler's install
// directory, honoring handle's cancellation flag.
func Run(ctx context.Context, asm *assembler.Assembler, handle *control.Handle, manifest *manifestcodec.ParsedManifest, opts Options, onProgress OnProgress) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	files := manifest.FileManifestList.Elements
	tracker := progress.NewTracker(len(files), manifest.TotalBytes())

	sem := semaphore.NewWeighted(int64(workers))
	errCh := make(chan error, len(files))

	log := logrus.WithField("component", "downloader")

	for _, file := range files {
		if handle.Cancelled() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			errCh <- err
			continue
		}

		go func(file manifestcodec.FileManifest) {
			defer sem.Release(1)
			errCh <- downloadFileWithRetry(ctx, asm, handle, file, tracker, onProgress, log)
		}(file)
	}

	if err := sem.Acquire(ctx, int64(workers)); err != nil {
		return err
	}
	close(errCh)

	var failures []error
	cancelled := false
	for err := range errCh {
		if err == nil {
			continue
		}
		if _, ok := err.(assembler.ErrCancelled); ok {
			cancelled = true
			continue
		}
		failures = append(failures, err)
	}

	if handle.Cancelled() || cancelled {
		return ErrCancelled{}
	}
	if len(failures) > 0 {
		return &ErrMultiple{Errors: failures}
	}

	onProgress(tracker.Complete(""))
	return nil
}

func downloadFileWithRetry(ctx context.Context, asm *assembler.Assembler, handle *control.Handle, file manifestcodec.FileManifest, tracker *progress.Tracker, onProgress OnProgress, log *logrus.Entry) error {
	var lastErr error

	for attempt := 0; attempt <= maxFileRetries; attempt++ {
		if handle.Cancelled() {
			return assembler.ErrCancelled{}
		}

		err := asm.Assemble(ctx, handle, file,
			func(existingLen, fileSize uint64) uint64 { return fileSize },
			func(n uint64) { onProgress(tracker.Add(file.FileName, n)) })
		if err == nil {
			return nil
		}
		if _, ok := err.(assembler.ErrCancelled); ok {
			return err
		}
		lastErr = err

		if attempt == maxFileRetries {
			break
		}

		log.WithError(err).WithFields(logrus.Fields{"file": file.FileName, "attempt": attempt + 1}).Warn("retrying file download")
		if cancelledDuringBackoff(handle, time.Duration(attempt+1)*time.Second) {
			return assembler.ErrCancelled{}
		}
	}

	log.WithError(lastErr).WithField("file", file.FileName).Error("file download failed after retries")
	return lastErr
}

func cancelledDuringBackoff(handle *control.Handle, delay time.Duration) bool {
	elapsed := time.Duration(0)
	for elapsed < delay {
		if handle.Cancelled() {
			return true
		}
		time.Sleep(retryPollPeriod)
		elapsed += retryPollPeriod
	}
	return handle.Cancelled()
}
