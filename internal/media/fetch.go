package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"autosub/internal/config"
	"autosub/internal/logging"
	"autosub/internal/services"
)

const defaultFetchTimeout = 10 * time.Minute

// ProgressFunc receives download progress. total is -1 when the server
// does not announce a Content-Length.
type ProgressFunc func(loaded, total int64)

// Fetcher downloads audio streams with the request headers the CDN
// expects.
type Fetcher struct {
	client    *http.Client
	referer   string
	userAgent string
	logger    *slog.Logger
}

// FetcherOption adjusts a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchClient overrides the HTTP client, mainly for tests.
func WithFetchClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithFetchLogger attaches a logger for download progress events.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher builds a Fetcher from the media configuration.
func NewFetcher(cfg *config.Config, opts ...FetcherOption) *Fetcher {
	fetcher := &Fetcher{
		client:    &http.Client{Timeout: defaultFetchTimeout},
		referer:   cfg.Media.Referer,
		userAgent: cfg.Media.UserAgent,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Download fetches the stream body. The progress callback, when not
// nil, is invoked as chunks arrive and once more at completion.
func (f *Fetcher) Download(ctx context.Context, stream Stream, progress ProgressFunc) ([]byte, error) {
	urls := append([]string{stream.URL}, stream.BackupURL...)
	var lastErr error
	for _, url := range urls {
		data, err := f.downloadOne(ctx, url, progress)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		f.logger.Warn("stream download failed, trying backup",
			logging.String("url", url),
			logging.Error(err))
	}
	return nil, lastErr
}

func (f *Fetcher) downloadOne(ctx context.Context, url string, progress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "media", "download", "build request", err)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrNetwork, "media", "download", "request audio stream", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, services.Wrap(services.ErrNetwork, "media", "download",
			fmt.Sprintf("audio stream returned status %d", resp.StatusCode), nil)
	}

	total := resp.ContentLength
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}
	chunk := make([]byte, 64*1024)
	var loaded int64
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			loaded += int64(n)
			if progress != nil {
				progress(loaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, services.Wrap(services.ErrNetwork, "media", "download", "read audio stream body", readErr)
		}
	}
	return buf.Bytes(), nil
}
