package pipeline

import (
	"log/slog"
	"strings"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Middleware processes a raw review and returns the (possibly modified) review.
// Return nil to drop the review from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a raw review. Return nil to drop it.
	Process(raw *types.RawReview) (*types.RawReview, error)
}

// Pipeline chains middleware processors and ends in normalization.
// A Pipeline holds per-scrape state and must not be shared between scrapes.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// NewDefault creates the pipeline used for every scrape. It trims scalar
// fields and, when dedup is set, drops reviews whose id was already seen
// earlier in the walk.
func NewDefault(logger *slog.Logger, dedup bool) *Pipeline {
	p := New(logger)
	p.Use(&TrimMiddleware{})
	if dedup {
		p.Use(NewDedupMiddleware())
	}
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// Process runs raw through every middleware and normalizes the result.
// ok is false when a middleware dropped the review.
func (p *Pipeline) Process(raw types.RawReview) (review types.Review, ok bool, err error) {
	current := &raw

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return types.Review{}, false, err
		}
		if result == nil {
			p.logger.Debug("review dropped", "stage", mw.Name(), "opinion_id", raw.ID)
			return types.Review{}, false, nil
		}
		current = result
	}

	review, err = types.Normalize(*current)
	if err != nil {
		return types.Review{}, false, err
	}
	return review, true, nil
}

// --- Built-in Middleware ---

// TrimMiddleware trims whitespace from scalar fields. Pros and cons are left
// exactly as extracted.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(raw *types.RawReview) (*types.RawReview, error) {
	for _, field := range []*string{
		&raw.ID, &raw.Author, &raw.Recommendation, &raw.Stars, &raw.Content,
		&raw.Useful, &raw.Unuseful, &raw.PostDate, &raw.PurchaseDate,
	} {
		*field = strings.TrimSpace(*field)
	}
	return raw, nil
}

// DedupMiddleware drops reviews whose id was already seen. Reviews without an
// id are always kept.
type DedupMiddleware struct {
	seen map[string]struct{}
}

func NewDedupMiddleware() *DedupMiddleware {
	return &DedupMiddleware{
		seen: make(map[string]struct{}),
	}
}

func (m *DedupMiddleware) Name() string { return "dedup" }

func (m *DedupMiddleware) Process(raw *types.RawReview) (*types.RawReview, error) {
	if raw.ID == "" {
		return raw, nil
	}
	if _, exists := m.seen[raw.ID]; exists {
		return nil, nil // Drop duplicate
	}
	m.seen[raw.ID] = struct{}{}
	return raw, nil
}
