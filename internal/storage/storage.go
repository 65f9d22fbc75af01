package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Store persists scraped reviews and product summaries keyed by product id.
// Saving overwrites whatever was stored for the id before. Loading an id
// that was never saved returns an error wrapping types.ErrNotStored.
type Store interface {
	// SaveReviews replaces the stored reviews of a product.
	SaveReviews(ctx context.Context, productID string, reviews []types.Review) error

	// LoadReviews returns the stored reviews of a product in scrape order.
	LoadReviews(ctx context.Context, productID string) ([]types.Review, error)

	// SaveProduct replaces the stored summary of a product.
	SaveProduct(ctx context.Context, product *types.Product) error

	// LoadProduct returns the stored summary of a product.
	LoadProduct(ctx context.Context, productID string) (*types.Product, error)

	// ListProducts returns every stored summary ordered by product id.
	ListProducts(ctx context.Context) ([]*types.Product, error)

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the Store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "file":
		return NewFileStore(cfg.DataDir, logger)
	case "mongodb", "mongo":
		return NewMongoStore(ctx, cfg.Mongo, logger)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// checkID rejects ids that cannot be used as a storage key.
func checkID(productID string) error {
	if productID == "" || productID == "." || productID == ".." || strings.ContainsAny(productID, `/\`) {
		return fmt.Errorf("%w: %q", types.ErrInvalidProductID, productID)
	}
	return nil
}
