package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Value is the result of applying one SelectorSpec.
type Value struct {
	// Text holds the value for ModeText and ModeAttr, or the spec default
	// when nothing matched.
	Text string

	// List holds every matched text for ModeList; empty, never nil.
	List []string

	// Count is the number of matched nodes.
	Count int

	// Found reports whether the selector matched a non-empty value.
	Found bool
}

// Extract applies spec to the subtree rooted at sel. It never fails: an
// absent field yields the spec's default (text/attr), an empty list or zero.
func Extract(sel *goquery.Selection, spec SelectorSpec) Value {
	matches := Match(sel, spec)
	n := matches.Length()

	switch spec.Mode {
	case ModeCount:
		return Value{Count: n, Found: n > 0}

	case ModeList:
		list := make([]string, 0, n)
		matches.Each(func(_ int, m *goquery.Selection) {
			list = append(list, strings.TrimSpace(m.Text()))
		})
		return Value{List: list, Count: n, Found: n > 0}

	case ModeAttr:
		if n == 0 {
			return Value{Text: spec.Default}
		}
		val, ok := matches.First().Attr(spec.Attribute)
		val = strings.TrimSpace(val)
		if !ok || val == "" {
			return Value{Text: spec.Default, Count: n}
		}
		return Value{Text: val, Count: n, Found: true}

	default:
		if n == 0 {
			return Value{Text: spec.Default}
		}
		val := strings.TrimSpace(matches.First().Text())
		if val == "" {
			return Value{Text: spec.Default, Count: n}
		}
		return Value{Text: val, Count: n, Found: true}
	}
}

// Match returns the nodes spec selects below sel, in document order.
// XPath expressions are evaluated with htmlquery against each context node;
// an invalid expression matches nothing.
func Match(sel *goquery.Selection, spec SelectorSpec) *goquery.Selection {
	if spec.Selector == "" {
		return sel
	}

	if spec.Type != TypeXPath {
		return sel.Find(spec.Selector)
	}

	var found []*html.Node
	for _, node := range sel.Nodes {
		nodes, err := htmlquery.QueryAll(node, spec.Selector)
		if err != nil {
			return sel.FindNodes()
		}
		found = append(found, nodes...)
	}
	return sel.FindNodes(found...)
}
