package source

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// HTTPOptions configures an HTTPSource.
type HTTPOptions struct {
	URL     string
	Timeout time.Duration
	Headers map[string]string
	// Client may be injected for testing; defaults to a client with Timeout.
	Client *http.Client
}

// HTTPSource downloads the list with a single GET request.
type HTTPSource struct {
	url     string
	timeout time.Duration
	headers map[string]string
	client  *http.Client
}

// NewHTTPSource creates an HTTPSource. A non-positive timeout defaults to 30 seconds.
func NewHTTPSource(opts HTTPOptions) *HTTPSource {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	return &HTTPSource{
		url:     opts.URL,
		timeout: opts.Timeout,
		headers: opts.Headers,
		client:  opts.Client,
	}
}

func (s *HTTPSource) Name() string { return s.url }

// Fetch performs the request, bounded by both ctx and the configured timeout.
func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %d", ErrUnexpectedStatus, s.url, resp.StatusCode)
	}

	lines, err := readLines(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.url, err)
	}
	return lines, nil
}

var _ LineSource = (*HTTPSource)(nil)
