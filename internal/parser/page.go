package parser

import (
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// Page is everything extracted from one review listing page.
type Page struct {
	ProductName string
	ReviewCount int
	Reviews     []types.RawReview

	// NextPage is the raw href of the "next page" link, empty on the last page.
	NextPage string
}

// Extractor reads review listing pages using a SelectorTable.
type Extractor struct {
	table   SelectorTable
	invalid map[string]error
	logger  *slog.Logger
}

// NewExtractor creates an extractor for the given selector table.
func NewExtractor(table SelectorTable, logger *slog.Logger) *Extractor {
	return &Extractor{
		table:   table,
		invalid: table.InvalidXPath(),
		logger:  logger.With("component", "extractor"),
	}
}

// Table returns the selector table in use.
func (e *Extractor) Table() SelectorTable {
	return e.table
}

// ParsePage parses a fetched page and extracts every review block on it.
func (e *Extractor) ParsePage(resp *types.Response) (*Page, error) {
	doc, err := resp.Document()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", resp.Request.URLString(), err)
	}
	root := doc.Selection

	for name, err := range e.invalid {
		e.logger.Debug("selector matched nothing", "url", resp.Request.URLString(), "selector", name, "error", err)
	}

	page := &Page{
		ProductName: Extract(root, e.table.ProductName).Text,
		ReviewCount: Extract(root, e.table.ReviewCount).Count,
		NextPage:    Extract(root, e.table.NextPage).Text,
	}

	Match(root, e.table.ReviewBlock).Each(func(_ int, block *goquery.Selection) {
		page.Reviews = append(page.Reviews, ExtractReview(block, e.table))
	})

	e.logger.Debug("page parsed",
		"url", resp.Request.URLString(),
		"reviews", len(page.Reviews),
		"has_next", page.NextPage != "",
	)
	return page, nil
}

// ExtractReview maps a single review block onto a RawReview, one field at a
// time.
func ExtractReview(block *goquery.Selection, t SelectorTable) types.RawReview {
	return types.RawReview{
		ID:             Extract(block, t.ID).Text,
		Author:         Extract(block, t.Author).Text,
		Recommendation: Extract(block, t.Recommendation).Text,
		Stars:          Extract(block, t.Stars).Text,
		Content:        Extract(block, t.Content).Text,
		Pros:           Extract(block, t.Pros).List,
		Cons:           Extract(block, t.Cons).List,
		Useful:         Extract(block, t.Useful).Text,
		Unuseful:       Extract(block, t.Unuseful).Text,
		PostDate:       Extract(block, t.PostDate).Text,
		PurchaseDate:   Extract(block, t.PurchaseDate).Text,
	}
}
