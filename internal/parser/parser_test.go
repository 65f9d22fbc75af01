package parser

import (
	"bytes"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const testHTML = `<!DOCTYPE html>
<html>
<body>
    <h1 class="product-top__product-info__name">Smartfon XYZ 128GB</h1>
    <a class="product-review__link" href="#tab=reviews"><span>3 opinie</span></a>

    <div class="user-post user-post__card js_product-review user-post--highlight" data-entry-id="999">
        <span class="user-post__author-name">Highlighted</span>
        <span class="user-post__score-count">1/5</span>
    </div>

    <div class="user-post user-post__card js_product-review" data-entry-id="101">
        <span class="user-post__author-name"> Anna </span>
        <span class="user-post__author-recomendation"><em>Polecam</em></span>
        <span class="user-post__score-count">4,5/5</span>
        <span class="user-post__published">
            <time datetime="2023-05-01 10:00:00">2 lata temu</time>
            <time datetime="2023-04-20 09:00:00">2 lata temu</time>
        </span>
        <div class="user-post__text">Bardzo dobry telefon.</div>
        <div class="review-feature">
            <div class="review-feature__col">
                <div class="review-feature__title review-feature__title--positives">Zalety</div>
                <div class="review-feature__item">bateria</div>
                <div class="review-feature__item">ekran</div>
            </div>
            <div class="review-feature__col">
                <div class="review-feature__title review-feature__title--negatives">Wady</div>
                <div class="review-feature__item">cena</div>
            </div>
        </div>
        <button class="vote-yes"><span>7</span></button>
        <button class="vote-no"><span>1</span></button>
    </div>

    <div class="user-post user-post__card js_product-review" data-entry-id="102">
        <span class="user-post__author-name">Piotr</span>
        <span class="user-post__score-count">2/5</span>
        <div class="user-post__text">Słaby.</div>
    </div>

    <div class="pagination">
        <a class="pagination__item pagination__next" href="/123/opinie-2">Następna</a>
    </div>
</body>
</html>`

func makeResp(url, body string) *types.Response {
	req, _ := types.NewRequest(url)
	return &types.Response{
		Request:     req,
		StatusCode:  200,
		Body:        []byte(body),
		ContentType: "text/html",
	}
}

func testDoc(t *testing.T) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(testHTML))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

// --- Extract Tests ---

func TestExtractModes(t *testing.T) {
	doc := testDoc(t)
	root := doc.Selection

	if v := Extract(root, SelectorSpec{Selector: "h1", Mode: ModeText}); v.Text != "Smartfon XYZ 128GB" || !v.Found {
		t.Errorf("text mode: got %+v", v)
	}
	if v := Extract(root, SelectorSpec{Selector: "a.pagination__next", Mode: ModeAttr, Attribute: "href"}); v.Text != "/123/opinie-2" {
		t.Errorf("attr mode: got %+v", v)
	}
	if v := Extract(root, SelectorSpec{Selector: "div.js_product-review", Mode: ModeCount}); v.Count != 3 {
		t.Errorf("count mode: expected 3, got %d", v.Count)
	}
	v := Extract(root, SelectorSpec{Selector: "span.user-post__author-name", Mode: ModeList})
	if !reflect.DeepEqual(v.List, []string{"Highlighted", "Anna", "Piotr"}) {
		t.Errorf("list mode: got %v", v.List)
	}
}

func TestExtractDefaultsOnMiss(t *testing.T) {
	root := testDoc(t).Selection

	if v := Extract(root, SelectorSpec{Selector: "span.nope", Mode: ModeText, Default: "0"}); v.Text != "0" || v.Found {
		t.Errorf("text miss: got %+v", v)
	}
	if v := Extract(root, SelectorSpec{Selector: "h1", Mode: ModeAttr, Attribute: "data-missing"}); v.Text != "" || v.Found {
		t.Errorf("attr miss: got %+v", v)
	}
	if v := Extract(root, SelectorSpec{Selector: "ul.nope", Mode: ModeList}); v.List == nil || len(v.List) != 0 {
		t.Errorf("list miss: expected empty non-nil list, got %#v", v.List)
	}
	if v := Extract(root, SelectorSpec{Selector: "ul.nope", Mode: ModeCount}); v.Count != 0 || v.Found {
		t.Errorf("count miss: got %+v", v)
	}
}

func TestExtractXPath(t *testing.T) {
	root := testDoc(t).Selection

	v := Extract(root, SelectorSpec{Selector: "//h1", Type: TypeXPath, Mode: ModeText})
	if v.Text != "Smartfon XYZ 128GB" {
		t.Errorf("xpath text: got %q", v.Text)
	}

	v = Extract(root, SelectorSpec{Selector: "//div[@data-entry-id]", Type: TypeXPath, Mode: ModeCount})
	if v.Count != 3 {
		t.Errorf("xpath count: expected 3, got %d", v.Count)
	}

	v = Extract(root, SelectorSpec{Selector: "//div[", Type: TypeXPath, Mode: ModeText, Default: "x"})
	if v.Text != "x" || v.Found {
		t.Errorf("invalid xpath should miss, got %+v", v)
	}
}

// --- Review Extraction Tests ---

func TestParsePage(t *testing.T) {
	e := NewExtractor(DefaultSelectorTable(), testLogger)
	page, err := e.ParsePage(makeResp("https://www.ceneo.pl/123#tab=reviews", testHTML))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}

	if page.ProductName != "Smartfon XYZ 128GB" {
		t.Errorf("unexpected product name %q", page.ProductName)
	}
	if page.ReviewCount != 1 {
		t.Errorf("expected review count selector to match once, got %d", page.ReviewCount)
	}
	if page.NextPage != "/123/opinie-2" {
		t.Errorf("unexpected next page %q", page.NextPage)
	}
	if len(page.Reviews) != 2 {
		t.Fatalf("expected 2 non-highlighted reviews, got %d", len(page.Reviews))
	}

	want := types.RawReview{
		ID:             "101",
		Author:         "Anna",
		Recommendation: "Polecam",
		Stars:          "4,5/5",
		Content:        "Bardzo dobry telefon.",
		Pros:           []string{"bateria", "ekran"},
		Cons:           []string{"cena"},
		Useful:         "7",
		Unuseful:       "1",
		PostDate:       "2023-05-01 10:00:00",
		PurchaseDate:   "2023-04-20 09:00:00",
	}
	if !reflect.DeepEqual(page.Reviews[0], want) {
		t.Errorf("first review:\nexpected %+v\ngot      %+v", want, page.Reviews[0])
	}

	sparse := page.Reviews[1]
	if sparse.Useful != "0" || sparse.Unuseful != "0" {
		t.Errorf("missing counters should default to \"0\", got %q/%q", sparse.Useful, sparse.Unuseful)
	}
	if sparse.Recommendation != "" || len(sparse.Pros) != 0 || len(sparse.Cons) != 0 {
		t.Errorf("unexpected sparse review %+v", sparse)
	}
}

func TestParsePageLastPage(t *testing.T) {
	e := NewExtractor(DefaultSelectorTable(), testLogger)
	page, err := e.ParsePage(makeResp("https://example.com", `<html><body><h1>P</h1></body></html>`))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if page.NextPage != "" || len(page.Reviews) != 0 || page.ReviewCount != 0 {
		t.Errorf("expected empty page, got %+v", page)
	}
}

// --- Selector Table Tests ---

func TestApplyRules(t *testing.T) {
	table := DefaultSelectorTable()
	err := table.ApplyRules([]config.ParseRule{
		{Name: "author", Type: "xpath", Selector: ".//span[@class='user-post__author-name']"},
		{Name: "content", Selector: "div.user-post__text", Attribute: "data-full"},
	})
	if err != nil {
		t.Fatalf("apply rules: %v", err)
	}

	if table.Author.Type != TypeXPath || table.Author.Mode != ModeText {
		t.Errorf("unexpected author spec %+v", table.Author)
	}
	if table.Content.Mode != ModeAttr || table.Content.Attribute != "data-full" {
		t.Errorf("attribute override should switch to attr mode, got %+v", table.Content)
	}

	e := NewExtractor(table, testLogger)
	page, err := e.ParsePage(makeResp("https://example.com", testHTML))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if page.Reviews[0].Author != "Anna" {
		t.Errorf("xpath author override: got %q", page.Reviews[0].Author)
	}
}

func TestApplyRulesErrors(t *testing.T) {
	table := DefaultSelectorTable()
	if err := table.ApplyRules([]config.ParseRule{{Name: "rating"}}); err == nil {
		t.Error("expected error for unknown selector name")
	}
	if err := table.ApplyRules([]config.ParseRule{{Name: "author", Type: "xpath", Selector: "//span["}}); err == nil {
		t.Error("expected error for invalid xpath")
	}
}

func TestParsePageLogsInvalidXPath(t *testing.T) {
	table := DefaultSelectorTable()
	table.Author = SelectorSpec{Selector: "//span[", Type: TypeXPath, Mode: ModeText}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := NewExtractor(table, logger)

	page, err := e.ParsePage(makeResp("https://example.com", testHTML))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	if page.Reviews[0].Author != "" {
		t.Errorf("invalid xpath should miss, got %q", page.Reviews[0].Author)
	}
	if out := buf.String(); !strings.Contains(out, "selector matched nothing") || !strings.Contains(out, "selector=author") {
		t.Errorf("expected invalid selector to be logged, got:\n%s", out)
	}
	def := DefaultSelectorTable()
	if len(def.InvalidXPath()) != 0 {
		t.Error("default table should have no invalid selectors")
	}
}
