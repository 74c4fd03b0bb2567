package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request represents a page fetch issued on behalf of a FetchTarget.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Headers are custom HTTP headers to send with the request.
	Headers http.Header

	// Timeout overrides the fetcher's request timeout.
	Timeout time.Duration

	// Index is the position of the originating FetchTarget, -1 if none.
	Index int

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a GET request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w %q: missing host", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:       u,
		Headers:   make(http.Header),
		Index:     -1,
		CreatedAt: time.Now(),
	}, nil
}

// NewTargetRequest creates a request for a FetchTarget.
func NewTargetRequest(t FetchTarget) (*Request, error) {
	req, err := NewRequest(t.URL)
	if err != nil {
		return nil, err
	}
	req.Index = t.Index
	return req, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Domain returns the hostname of the request URL.
func (r *Request) Domain() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.Hostname()
}
