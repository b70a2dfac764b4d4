// Package uninstaller implements the uninstall engine (spec.md §4.9):
// enumerate and delete every regular file under an install directory,
// best-effort, then prune directories left empty. Grounding:
// original_source uninstall.rs uninstall_game, generalized from its
// single-pass walk to afero.Fs so it shares storage abstractions with the
// rest of this module.
package uninstaller

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/realitylauncher/splash/internal/control"
	"github.com/realitylauncher/splash/internal/progress"
)

// entry is one file discovered under the install directory.
type entry struct {
	path string
	size uint64
}

// OnProgress is invoked for every emitted progress.Update, including the
// terminal "Uninstall complete" tick.
type OnProgress func(progress.Update)

const completeMessage = "Uninstall complete"

// Run deletes every regular file under installDir, honoring handle's
// cancellation flag between files, then removes directories left empty.
// Deletion is best-effort: a failure to remove one file is logged and
// credited toward progress like a success, matching spec.md §4.9's
// instruction that failures are "not fatal".
func Run(ctx context.Context, fs afero.Fs, handle *control.Handle, installDir string, onProgress OnProgress) error {
	log := logrus.WithField("component", "uninstaller")

	entries, err := collectFiles(fs, installDir)
	if err != nil {
		return err
	}

	var totalBytes uint64
	for _, e := range entries {
		totalBytes += e.size
	}
	tracker := progress.NewTracker(len(entries), totalBytes)

	for _, e := range entries {
		if handle.Cancelled() {
			return ErrCancelled{}
		}

		if err := fs.Remove(e.path); err != nil {
			log.WithError(err).WithField("path", e.path).Warn("failed to delete file during uninstall")
		}
		onProgress(tracker.Add(e.path, e.size))
	}

	pruneEmptyDirs(fs, installDir, log)

	onProgress(tracker.Complete(completeMessage))
	return nil
}

// collectFiles walks installDir recursively and returns every regular
// file found, along with its size.
func collectFiles(fs afero.Fs, installDir string) ([]entry, error) {
	var entries []entry
	err := afero.Walk(fs, installDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		entries = append(entries, entry{path: path, size: uint64(info.Size())})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// pruneEmptyDirs removes every directory under installDir, installDir
// itself included, left empty after file deletion, deepest first so
// removing a child can empty its parent in the same pass.
func pruneEmptyDirs(fs afero.Fs, installDir string, log *logrus.Entry) {
	var dirs []string
	_ = afero.Walk(fs, installDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		dirs = append(dirs, path)
		return nil
	})

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	for _, dir := range dirs {
		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			continue
		}
		if len(entries) != 0 {
			continue
		}
		if err := fs.Remove(dir); err != nil {
			log.WithError(err).WithField("path", dir).Warn("failed to prune empty directory")
		}
	}
}

// ErrCancelled is returned when an uninstall run observed cancellation.
type ErrCancelled struct{}

func (ErrCancelled) Error() string { return "uninstaller: cancelled" }
