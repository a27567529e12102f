package asr

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"autosub/internal/services"
	"autosub/internal/subtitle"
)

const defaultHTTPTimeout = 5 * time.Minute

// Client produces a flat, absolutely-timestamped word stream from raw audio
// bytes via exactly one remote provider.
type Client interface {
	Transcribe(ctx context.Context, audio []byte) ([]subtitle.Word, error)
}

// Option customizes client construction.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	nonce      func() string
	now        func() time.Time
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBaseURL overrides the provider endpoint (used in tests).
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithNonceFunc overrides nonce generation so signatures are reproducible
// in tests.
func WithNonceFunc(nonce func() string) Option {
	return func(o *clientOptions) {
		if nonce != nil {
			o.nonce = nonce
		}
	}
}

// WithNowFunc overrides the timestamp source so signatures are reproducible
// in tests.
func WithNowFunc(now func() time.Time) Option {
	return func(o *clientOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) clientOptions {
	options := clientOptions{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		nonce:      func() string { return uuid.NewString() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// New constructs the client for the selected provider. Missing or blank
// required credential fields fail here with a configuration error, before
// any network call is issued.
func New(creds Credentials, opts ...Option) (Client, error) {
	options := buildOptions(opts)
	switch creds.Kind {
	case ProviderMock:
		return newMockClient(), nil
	case ProviderTencent:
		return newTencentClient(creds.Tencent, options)
	case ProviderAlibaba:
		return newAlibabaClient(creds.Alibaba, options)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "select provider",
			"unknown provider "+string(creds.Kind), nil)
	}
}
