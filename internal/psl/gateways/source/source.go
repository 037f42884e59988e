// Package source supplies raw public suffix list lines from the network or disk.
// Sources never retry; callers decide what to do with a failure.
package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrUnexpectedStatus is returned when an HTTP source answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrUnsupportedScheme is returned by New for URLs it has no source for.
	ErrUnsupportedScheme = errors.New("unsupported source scheme")
)

// LineSource yields the lines of a public suffix list in order.
type LineSource interface {
	Fetch(ctx context.Context) ([]string, error)
	// Name identifies the source in logs and snapshot keys.
	Name() string
}

// New returns a LineSource for location: http and https URLs are fetched over HTTP,
// file URLs and bare paths are read from disk.
func New(location string, timeout time.Duration) (LineSource, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("source must not be empty")
	}
	if !strings.Contains(location, "://") {
		return NewFileSource(location), nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid source %q: %w", location, err)
	}
	switch u.Scheme {
	case "http", "https":
		return NewHTTPSource(HTTPOptions{URL: location, Timeout: timeout}), nil
	case "file":
		return NewFileSource(u.Path), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// readLines splits r into lines without trimming them. A UTF-8 byte order
// mark on the first line is removed and "\r\n" endings are accepted.
func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lines := make([]string, 0, 1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(lines) == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
