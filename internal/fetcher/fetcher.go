package fetcher

import (
	"context"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Fetcher retrieves pages for the scraper. Every request of a scrape goes
// through the same Fetcher so the site always sees the same identity.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL. A non-2xx
	// status is reported as a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
