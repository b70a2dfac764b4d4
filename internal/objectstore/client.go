// Package objectstore implements the remote chunk/manifest store client:
// fetch-by-(bucket,key) with retries, timeouts, and exponential backoff
// (spec.md §4.4).
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries          = 3
	initialBackoff      = 500 * time.Millisecond
	operationTimeout    = 30 * time.Second
	perReadTimeout      = 10 * time.Second
	streamReadChunkSize = 8 * 1024 // 8 KiB, per spec.md §4.4
)

// Client fetches raw object bytes by (bucket, key). The download and verify
// engines depend only on this interface (spec.md §4.4, §4.7, §4.8), which
// is what makes them mockable in tests without a live HTTP endpoint.
type Client interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// HTTPClient is the production Client: a GET against baseURL/bucket/key.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewHTTPClient builds an HTTPClient against baseURL (e.g. a CDN or object
// storage gateway's public root).
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// Fetch retries up to maxRetries times with doubling backoff starting at
// initialBackoff (500ms, 1000ms, 2000ms), each attempt bounded by
// operationTimeout, streaming the body in streamReadChunkSize reads each
// bounded by perReadTimeout.
func (c *HTTPClient) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, bucket, key)
	log := logrus.WithFields(logrus.Fields{"component": "objectstore", "key": key})

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			log.WithField("attempt", attempt).WithField("backoff", backoff).Warn("retrying object fetch")
			select {
			case <-ctx.Done():
				return nil, &DownloadError{Key: key, Reason: ctx.Err()}
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		data, err := c.fetchOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		log.WithError(err).WithField("attempt", attempt).Debug("object fetch attempt failed")
	}

	return nil, &DownloadError{Key: key, Reason: lastErr}
}

func (c *HTTPClient) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return readWithPerChunkDeadline(attemptCtx, resp.Body, resp.ContentLength)
}

// readWithPerChunkDeadline reads r in streamReadChunkSize increments, each
// individually bounded by perReadTimeout, independent of the overall
// attemptCtx deadline — this is the literal translation of the original
// implementation's per-8KiB-read timeout loop (see SPEC_FULL.md).
func readWithPerChunkDeadline(ctx context.Context, r io.Reader, contentLength int64) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if contentLength > 0 {
		buf.Grow(int(contentLength))
	}

	chunk := make([]byte, streamReadChunkSize)
	type readResult struct {
		n   int
		err error
	}

	for {
		resultCh := make(chan readResult, 1)
		go func() {
			n, err := r.Read(chunk)
			resultCh <- readResult{n, err}
		}()

		select {
		case res := <-resultCh:
			if res.n > 0 {
				buf.Write(chunk[:res.n])
			}
			if res.err == io.EOF {
				return buf.Bytes(), nil
			}
			if res.err != nil {
				return nil, res.err
			}
		case <-time.After(perReadTimeout):
			return nil, fmt.Errorf("read timed out after %s", perReadTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
