package types

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Request tags used in logs and metrics.
const (
	TagProbe = "probe"
	TagPage  = "page"
)

// Request represents an HTTP GET issued while scraping a product.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is the HTTP method. Defaults to GET.
	Method string

	// Headers are per-request headers applied on top of the session identity.
	Headers http.Header

	// ProductID is the product this request belongs to.
	ProductID string

	// Tag categorizes this request ("probe" or "page").
	Tag string

	// Page is the 1-based page number within the review listing.
	Page int

	// CreatedAt is when this request was created.
	CreatedAt time.Time
}

// NewRequest creates a new GET Request.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	return &Request{
		URL:       u,
		Method:    http.MethodGet,
		Headers:   make(http.Header),
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}

// Resolve turns a possibly relative link found on this request's page into an
// absolute URL without fragment.
func (r *Request) Resolve(href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("invalid link %q: %w", href, err)
	}
	var resolved *url.URL
	if r.URL != nil {
		resolved = r.URL.ResolveReference(ref)
	} else {
		resolved = ref
	}
	resolved.Fragment = ""
	return resolved, nil
}
