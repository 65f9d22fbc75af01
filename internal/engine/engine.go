package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/fetcher"
	"github.com/IshaanNene/ReviewGoat/internal/observability"
	"github.com/IshaanNene/ReviewGoat/internal/parser"
	"github.com/IshaanNene/ReviewGoat/internal/pipeline"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Scrape results reported to metrics.
const (
	ResultOK        = "ok"
	ResultTruncated = "truncated"
	ResultNotFound  = "not_found"
	ResultNoReviews = "no_reviews"
	ResultError     = "error"
)

// Engine walks the review listing of a product. It is safe for concurrent
// use as long as the fetcher is; every walk keeps its own state.
type Engine struct {
	cfg       *config.ScraperConfig
	fetcher   fetcher.Fetcher
	extractor *parser.Extractor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New creates a new Engine. The probe and every page of every walk go
// through f, so they all carry the same identity. metrics may be nil.
func New(cfg *config.ScraperConfig, f fetcher.Fetcher, ex *parser.Extractor, metrics *observability.Metrics, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		fetcher:   f,
		extractor: ex,
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
	}
}

// ProductURL returns the first review page of a product.
func (e *Engine) ProductURL(productID string) string {
	return fmt.Sprintf(e.cfg.ReviewURL, productID)
}

// Check probes the first review page of a product. It returns
// types.ErrProductNotFound when the page cannot be fetched and
// types.ErrNoReviewsYet when the page shows no review counter.
func (e *Engine) Check(ctx context.Context, productID string) (*types.Product, error) {
	req, err := e.newRequest(e.ProductURL(productID), productID, types.TagProbe, 1)
	if err != nil {
		return nil, err
	}

	resp, err := e.fetcher.Fetch(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.metrics.ObserveScrape(ResultNotFound)
		e.logger.Info("product probe failed", "product_id", productID, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", types.ErrProductNotFound, productID, err)
	}

	page, err := e.extractor.ParsePage(resp)
	if err != nil && !errors.Is(err, types.ErrEmptyResponse) {
		return nil, err
	}
	if page == nil || page.ReviewCount == 0 {
		e.metrics.ObserveScrape(ResultNoReviews)
		return nil, fmt.Errorf("%w: %s", types.ErrNoReviewsYet, productID)
	}

	return &types.Product{
		ID:   productID,
		Name: strings.TrimSpace(page.ProductName),
	}, nil
}

// FetchAll walks the review listing from the first page, following "next"
// links, and returns every normalized review in page order.
//
// A page that cannot be fetched ends the walk and the reviews collected so
// far are returned. A review that fails normalization aborts the walk with a
// *types.NormalizationError. The walk also stops on a link back to a page
// already visited and after scraper.max_pages pages when that is set.
func (e *Engine) FetchAll(ctx context.Context, productID string) ([]types.Review, error) {
	start := time.Now()
	pipe := pipeline.NewDefault(e.logger, e.cfg.DedupReviews)
	visited := make(visitedPages)
	reviews := make([]types.Review, 0)
	result := ResultOK

	next := e.ProductURL(productID)
	pageNum := 0

	for next != "" {
		if e.cfg.MaxPages > 0 && pageNum >= e.cfg.MaxPages {
			e.logger.Info("page limit reached", "product_id", productID, "max_pages", e.cfg.MaxPages)
			break
		}
		if visited.seen(next) {
			e.logger.Warn("pagination loop detected", "product_id", productID, "url", next)
			break
		}
		pageNum++

		req, err := e.newRequest(next, productID, types.TagPage, pageNum)
		if err != nil {
			e.metrics.ObserveScrape(ResultError)
			return nil, err
		}

		resp, err := e.fetcher.Fetch(ctx, req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.logger.Warn("page fetch failed, keeping reviews collected so far",
				"product_id", productID,
				"page", pageNum,
				"reviews", len(reviews),
				"error", err,
			)
			result = ResultTruncated
			break
		}

		page, err := e.extractor.ParsePage(resp)
		if err != nil {
			e.logger.Warn("page parse failed", "product_id", productID, "page", pageNum, "error", err)
			result = ResultTruncated
			break
		}

		before := len(reviews)
		for _, raw := range page.Reviews {
			review, ok, err := pipe.Process(raw)
			if err != nil {
				e.metrics.ObserveScrape(ResultError)
				return nil, fmt.Errorf("page %s: %w", req.URLString(), err)
			}
			if ok {
				reviews = append(reviews, review)
			}
		}
		e.metrics.AddReviews(len(reviews) - before)

		next = ""
		if page.NextPage != "" {
			u, err := req.Resolve(page.NextPage)
			if err != nil {
				e.logger.Warn("invalid next page link", "product_id", productID, "href", page.NextPage, "error", err)
				break
			}
			next = u.String()
		}
	}

	e.metrics.ObserveScrape(result)
	e.logger.Info("scrape complete",
		"product_id", productID,
		"pages", pageNum,
		"reviews", len(reviews),
		"result", result,
		"elapsed", time.Since(start),
	)
	return reviews, nil
}

func (e *Engine) newRequest(rawURL, productID, tag string, page int) (*types.Request, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, err
	}
	req.ProductID = productID
	req.Tag = tag
	req.Page = page
	return req, nil
}
