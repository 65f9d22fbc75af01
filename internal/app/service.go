// Package app is the single entry point the CLI and the HTTP API call into.
// Every operation either returns its result or a typed error that
// UserMessage can turn into text for the user.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/ReviewGoat/internal/charts"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/engine"
	"github.com/IshaanNene/ReviewGoat/internal/fetcher"
	"github.com/IshaanNene/ReviewGoat/internal/observability"
	"github.com/IshaanNene/ReviewGoat/internal/parser"
	"github.com/IshaanNene/ReviewGoat/internal/stats"
	"github.com/IshaanNene/ReviewGoat/internal/storage"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Service ties scraping, aggregation, persistence and rendering together.
type Service struct {
	cfg      *config.Config
	engine   *engine.Engine
	fetcher  fetcher.Fetcher
	store    storage.Store
	charts   *charts.Renderer
	metrics  *observability.Metrics
	validate *validator.Validate
	logger   *slog.Logger
}

// New builds a Service and all of its collaborators from cfg. metrics may be
// nil. Close releases the fetcher and the store.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*Service, error) {
	table := parser.DefaultSelectorTable()
	if err := table.ApplyRules(cfg.Parser.Rules); err != nil {
		return nil, fmt.Errorf("parser rules: %w", err)
	}

	f, err := fetcher.NewHTTPFetcher(cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Type, err)
	}

	eng := engine.New(&cfg.Scraper, f, parser.NewExtractor(table, logger), metrics, logger)

	return &Service{
		cfg:      cfg,
		engine:   eng,
		fetcher:  f,
		store:    store,
		charts:   charts.NewRenderer(cfg.Charts, logger),
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger.With("component", "service"),
	}, nil
}

// Close releases resources.
func (s *Service) Close() error {
	ferr := s.fetcher.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return ferr
}

// StoreName returns the active storage backend.
func (s *Service) StoreName() string {
	return s.store.Name()
}

// Extract validates the id, probes the product, scrapes every review page,
// aggregates and stores both the reviews and the summary.
func (s *Service) Extract(ctx context.Context, productID string) (*types.Product, error) {
	if err := s.ValidateProductID(productID); err != nil {
		return nil, err
	}

	probe, err := s.engine.Check(ctx, productID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.engine.FetchAll(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("scrape product %s: %w", productID, err)
	}

	product := stats.Summarize(productID, probe.Name, reviews)

	if err := s.store.SaveReviews(ctx, productID, reviews); err != nil {
		return nil, err
	}
	if err := s.store.SaveProduct(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product extracted",
		"product_id", productID,
		"name", product.Name,
		"reviews", product.Stats.OpinionsCount,
	)
	return product, nil
}

// ExtractResult is the outcome of one product of ExtractMany.
type ExtractResult struct {
	ProductID string
	Product   *types.Product
	Err       error
}

// ExtractMany extracts several products concurrently, at most
// scraper.concurrency at a time. A failing product does not stop the others.
// Results are in the order of ids.
func (s *Service) ExtractMany(ctx context.Context, ids []string) []ExtractResult {
	results := make([]ExtractResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.Scraper.Concurrency))

	for i, id := range ids {
		g.Go(func() error {
			product, err := s.Extract(gctx, id)
			results[i] = ExtractResult{ProductID: id, Product: product, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Products returns every stored product summary.
func (s *Service) Products(ctx context.Context) ([]*types.Product, error) {
	return s.store.ListProducts(ctx)
}

// Product returns the stored summary and reviews of a product.
func (s *Service) Product(ctx context.Context, productID string) (*types.Product, []types.Review, error) {
	product, err := s.store.LoadProduct(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	reviews, err := s.store.LoadReviews(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	return product, reviews, nil
}

// Charts renders the charts of a stored product.
func (s *Service) Charts(ctx context.Context, productID string) (*charts.Paths, error) {
	product, reviews, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.charts.Render(product, reviews)
}

// Export writes the stored reviews of a product to
// <storage.export_dir>/<id>.<format> and returns the path.
func (s *Service) Export(ctx context.Context, productID string, format storage.Format) (string, error) {
	reviews, err := s.store.LoadReviews(ctx, productID)
	if err != nil {
		return "", err
	}
	path, err := storage.ExportFile(s.cfg.Storage.ExportDirectory(), productID, format, reviews)
	if err != nil {
		return "", err
	}
	s.logger.Info("reviews exported", "product_id", productID, "format", format, "path", path)
	return path, nil
}

// WriteExport streams the stored reviews of a product to w.
func (s *Service) WriteExport(ctx context.Context, productID string, format storage.Format, w io.Writer) error {
	reviews, err := s.store.LoadReviews(ctx, productID)
	if err != nil {
		return err
	}
	return storage.WriteExport(w, format, reviews)
}
