package ingest

import (
	"context"
	"io"
	"net/http"
	"time"

	dicomerrors "github.com/caio-sobreiro/dicomjson/errors"
	"github.com/caio-sobreiro/dicomjson/interfaces"
)

// DefaultFetchTimeout bounds a single payload fetch when no client is given.
const DefaultFetchTimeout = 30 * time.Second

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithAuth attaches headers from provider to every request.
func WithAuth(provider interfaces.AuthHeaderProvider) FetcherOption {
	return func(f *HTTPFetcher) {
		f.auth = provider
	}
}

// HTTPFetcher fetches study payloads over HTTP.
type HTTPFetcher struct {
	client *http.Client
	auth   interfaces.AuthHeaderProvider
}

// NewHTTPFetcher creates a fetcher with a default client.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client: &http.Client{Timeout: DefaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url and returns the body. Non-2xx responses are FetchErrors.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, dicomerrors.NewFetchError(url, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	if f.auth != nil {
		headers, err := f.auth.AuthorizationHeader(ctx)
		if err != nil {
			return nil, dicomerrors.NewFetchError(url, 0, err)
		}
		for key, values := range headers {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, dicomerrors.NewFetchError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, dicomerrors.NewFetchError(url, resp.StatusCode, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dicomerrors.NewFetchError(url, resp.StatusCode, err)
	}
	return data, nil
}
