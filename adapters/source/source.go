// Package source opens the raw CSV resources named in the manifest, either
// over HTTP or from the local filesystem.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"covid-report/internal/errors"
	"covid-report/internal/logging"
)

// Source opens a resource by location. Callers must close the returned
// stream.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// HTTP fetches resources with a GET request. There are no retries: any
// transport error or non-200 status is a fetch error.
type HTTP struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

// NewHTTP creates an HTTP source. A zero timeout means no deadline beyond
// the caller's context.
func NewHTTP(timeout time.Duration, userAgent string) *HTTP {
	return &HTTP{
		client:    &http.Client{},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Open issues the request and returns the response body
func (h *HTTP) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	cancel := context.CancelFunc(func() {})
	if h.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		cancel()
		return nil, errors.Fetch(location, err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		cancel()
		return nil, errors.Fetch(location, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, errors.Fetch(location, fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("status", resp.StatusCode)
	}

	logging.Debug("opened remote source",
		zap.String("url", location),
		zap.Duration("latency", time.Since(start)),
		zap.Int64("content_length", resp.ContentLength))

	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}

// File opens local paths.
type File struct{}

// Open opens the file at location
func (File) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Fetch(location, err)
	}
	f, err := os.Open(location)
	if err != nil {
		return nil, errors.Fetch(location, err)
	}
	logging.Debug("opened local source", zap.String("path", location))
	return f, nil
}

// Router sends http(s) locations to Remote and everything else to Local.
type Router struct {
	Remote Source
	Local  Source
}

// NewRouter creates a router over an HTTP source and the filesystem
func NewRouter(timeout time.Duration, userAgent string) *Router {
	return &Router{Remote: NewHTTP(timeout, userAgent), Local: File{}}
}

// Resolve picks the source for a location
func (r *Router) Resolve(location string) Source {
	if IsRemote(location) {
		return r.Remote
	}
	return r.Local
}

// Open opens location with the resolved source
func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return r.Resolve(location).Open(ctx, location)
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
