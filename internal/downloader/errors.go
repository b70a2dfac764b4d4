package downloader

import "strings"

// ErrCancelled is returned when a download run observed cancellation.
type ErrCancelled struct{}

func (ErrCancelled) Error() string { return "downloader: cancelled" }

// ErrMultiple aggregates per-file failures from a run where no
// cancellation occurred but one or more files failed all retries.
type ErrMultiple struct {
	Errors []error
}

func (e *ErrMultiple) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return "downloader: multiple file failures: " + strings.Join(parts, "; ")
}
