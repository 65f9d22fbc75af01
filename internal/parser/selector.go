package parser

import (
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/IshaanNene/ReviewGoat/internal/config"
)

// Selector types.
const (
	TypeCSS   = "css"
	TypeXPath = "xpath"
)

// Mode selects what Extract returns for a selector.
type Mode string

const (
	// ModeText returns the trimmed text of the first match.
	ModeText Mode = "text"
	// ModeAttr returns the trimmed value of Attribute on the first match.
	ModeAttr Mode = "attr"
	// ModeList returns the trimmed text of every match.
	ModeList Mode = "list"
	// ModeCount returns the number of matches.
	ModeCount Mode = "count"
)

// SelectorSpec is a declarative rule for locating one field.
// An empty Selector addresses the context node itself.
type SelectorSpec struct {
	Selector  string
	Type      string
	Mode      Mode
	Attribute string
	Default   string
}

// SelectorTable maps every logical field to its SelectorSpec. Page-level
// specs run against the whole document; review specs run against a single
// review block.
type SelectorTable struct {
	ReviewBlock SelectorSpec
	NextPage    SelectorSpec
	ProductName SelectorSpec
	ReviewCount SelectorSpec

	ID             SelectorSpec
	Author         SelectorSpec
	Recommendation SelectorSpec
	Stars          SelectorSpec
	Content        SelectorSpec
	Pros           SelectorSpec
	Cons           SelectorSpec
	Useful         SelectorSpec
	Unuseful       SelectorSpec
	PostDate       SelectorSpec
	PurchaseDate   SelectorSpec
}

// DefaultSelectorTable returns the selectors for Ceneo review pages.
func DefaultSelectorTable() SelectorTable {
	return SelectorTable{
		ReviewBlock: SelectorSpec{Selector: "div.js_product-review:not(.user-post--highlight)", Mode: ModeList},
		NextPage:    SelectorSpec{Selector: "a.pagination__next", Mode: ModeAttr, Attribute: "href"},
		ProductName: SelectorSpec{Selector: "h1", Mode: ModeText},
		ReviewCount: SelectorSpec{Selector: "a.product-review__link > span", Mode: ModeCount},

		ID:             SelectorSpec{Mode: ModeAttr, Attribute: "data-entry-id"},
		Author:         SelectorSpec{Selector: "span.user-post__author-name", Mode: ModeText},
		Recommendation: SelectorSpec{Selector: "span.user-post__author-recomendation > em", Mode: ModeText},
		Stars:          SelectorSpec{Selector: "span.user-post__score-count", Mode: ModeText},
		Content:        SelectorSpec{Selector: "div.user-post__text", Mode: ModeText},
		Pros:           SelectorSpec{Selector: "div.review-feature__title--positives ~ div.review-feature__item", Mode: ModeList},
		Cons:           SelectorSpec{Selector: "div.review-feature__title--negatives ~ div.review-feature__item", Mode: ModeList},
		// Vote counters default to "0" so a missing counter normalizes to zero.
		Useful:       SelectorSpec{Selector: "button.vote-yes > span", Mode: ModeText, Default: "0"},
		Unuseful:     SelectorSpec{Selector: "button.vote-no > span", Mode: ModeText, Default: "0"},
		PostDate:     SelectorSpec{Selector: "span.user-post__published > time:nth-child(1)", Mode: ModeAttr, Attribute: "datetime"},
		PurchaseDate: SelectorSpec{Selector: "span.user-post__published > time:nth-child(2)", Mode: ModeAttr, Attribute: "datetime"},
	}
}

// fieldNames lists every name Lookup accepts, in table order.
var fieldNames = []string{
	"review_block", "next_page", "product_name", "review_count",
	"opinion_id", "author", "recommendation", "stars", "content",
	"pros", "cons", "useful", "unuseful", "post_date", "purchase_date",
}

// Lookup returns the spec registered under a field name.
func (t *SelectorTable) Lookup(name string) (*SelectorSpec, bool) {
	switch name {
	case "review_block":
		return &t.ReviewBlock, true
	case "next_page":
		return &t.NextPage, true
	case "product_name":
		return &t.ProductName, true
	case "review_count":
		return &t.ReviewCount, true
	case "opinion_id":
		return &t.ID, true
	case "author":
		return &t.Author, true
	case "recommendation":
		return &t.Recommendation, true
	case "stars":
		return &t.Stars, true
	case "content":
		return &t.Content, true
	case "pros":
		return &t.Pros, true
	case "cons":
		return &t.Cons, true
	case "useful":
		return &t.Useful, true
	case "unuseful":
		return &t.Unuseful, true
	case "post_date":
		return &t.PostDate, true
	case "purchase_date":
		return &t.PurchaseDate, true
	default:
		return nil, false
	}
}

// ApplyRules overrides named selectors from configuration. The extraction
// mode of each field is fixed; a rule only changes where the value is read.
func (t *SelectorTable) ApplyRules(rules []config.ParseRule) error {
	for _, rule := range rules {
		spec, ok := t.Lookup(rule.Name)
		if !ok {
			return fmt.Errorf("unknown selector %q", rule.Name)
		}

		spec.Selector = rule.Selector
		spec.Type = rule.Type
		if rule.Attribute != "" {
			spec.Attribute = rule.Attribute
			if spec.Mode == ModeText {
				spec.Mode = ModeAttr
			}
		}
		if rule.Default != "" {
			spec.Default = rule.Default
		}

		if err := checkXPath(*spec); err != nil {
			return fmt.Errorf("selector %q: %w", rule.Name, err)
		}
	}
	return nil
}

// InvalidXPath returns the names of XPath selectors that do not compile.
// Such selectors match nothing at extraction time.
func (t *SelectorTable) InvalidXPath() map[string]error {
	invalid := make(map[string]error)
	for _, name := range fieldNames {
		spec, _ := t.Lookup(name)
		if err := checkXPath(*spec); err != nil {
			invalid[name] = err
		}
	}
	return invalid
}

func checkXPath(spec SelectorSpec) error {
	if spec.Type != TypeXPath || spec.Selector == "" {
		return nil
	}
	if _, err := htmlquery.QueryAll(&html.Node{Type: html.DocumentNode}, spec.Selector); err != nil {
		return fmt.Errorf("invalid xpath %q: %w", spec.Selector, err)
	}
	return nil
}
