package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshaanNene/ReviewGoat/internal/charts"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/storage"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const page1 = `<html><body>
<h1>Odkurzacz Turbo</h1>
<a class="product-review__link"><span>3 opinie</span></a>
<div class="js_product-review" data-entry-id="1">
  <span class="user-post__author-name">Ala</span>
  <span class="user-post__author-recomendation"><em>Polecam</em></span>
  <span class="user-post__score-count">5/5</span>
  <div class="user-post__text">Super.</div>
  <div class="review-feature__col">
    <div class="review-feature__title review-feature__title--positives">Zalety</div>
    <div class="review-feature__item">moc</div>
  </div>
  <button class="vote-yes"><span>3</span></button>
</div>
<div class="js_product-review" data-entry-id="2">
  <span class="user-post__author-name">Ola</span>
  <span class="user-post__author-recomendation"><em>Nie polecam</em></span>
  <span class="user-post__score-count">1,5/5</span>
  <div class="user-post__text">Głośny.</div>
</div>
<a class="pagination__next" href="/11111/opinie-2">dalej</a>
</body></html>`

const page2 = `<html><body>
<h1>Odkurzacz Turbo</h1>
<a class="product-review__link"><span>3 opinie</span></a>
<div class="js_product-review" data-entry-id="3">
  <span class="user-post__author-name">Ela</span>
  <span class="user-post__score-count">4/5</span>
</div>
</body></html>`

func newTestService(t *testing.T) (*Service, *config.Config) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/11111":
			fmt.Fprint(w, page1)
		case "/11111/opinie-2":
			fmt.Fprint(w, page2)
		case "/22222":
			fmt.Fprint(w, `<html><body><h1>Nowość</h1></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Scraper.ReviewURL = server.URL + "/%s#tab=reviews"
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Charts.OutputDir = filepath.Join(dir, "charts")

	svc, err := New(context.Background(), cfg, nil, testLogger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, cfg
}

func TestExtractEndToEnd(t *testing.T) {
	svc, cfg := newTestService(t)
	ctx := context.Background()

	product, err := svc.Extract(ctx, "11111")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if product.Name != "Odkurzacz Turbo" || product.Stats.OpinionsCount != 3 {
		t.Errorf("unexpected product %+v", product)
	}
	if product.Stats.AverageStars != (5+1.5+4)/3.0 {
		t.Errorf("unexpected average %v", product.Stats.AverageStars)
	}
	want := types.RecommendationCounts{Recommends: 1, DoesNotRecommend: 1, Unset: 1}
	if product.Stats.Recommendations != want {
		t.Errorf("unexpected recommendations %+v", product.Stats.Recommendations)
	}

	stored, reviews, err := svc.Product(ctx, "11111")
	if err != nil {
		t.Fatalf("load product: %v", err)
	}
	if stored.Name != product.Name || len(reviews) != 3 || reviews[0].Useful != 3 || reviews[1].Useful != 0 {
		t.Errorf("unexpected stored data %+v %+v", stored, reviews)
	}

	for _, sub := range []string{"opinions", "products"} {
		if _, err := os.Stat(filepath.Join(cfg.Storage.DataDir, sub, "11111.json")); err != nil {
			t.Errorf("expected %s file: %v", sub, err)
		}
	}

	list, err := svc.Products(ctx)
	if err != nil || len(list) != 1 || list[0].ID != "11111" {
		t.Errorf("unexpected product list %v (err %v)", list, err)
	}
}

func TestExtractErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
		message string
	}{
		{"", types.ErrInvalidProductID, "Wymagane jest podanie ID produktu."},
		{"123", types.ErrInvalidProductID, "ID produktu powinno mieć od 5 do 10 znaków."},
		{"12a45", types.ErrInvalidProductID, "ID produktu musi składać się tylko z cyfr."},
		{"33333", types.ErrProductNotFound, "Nie znaleziono produktu o podanym ID."},
		{"22222", types.ErrNoReviewsYet, "Dla produktu o podanym ID nie ma jeszcze żadnej opinii."},
	}
	for _, tt := range tests {
		_, err := svc.Extract(ctx, tt.id)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Extract(%q): expected %v, got %v", tt.id, tt.wantErr, err)
			continue
		}
		if msg := UserMessage(err); msg != tt.message {
			t.Errorf("UserMessage for %q: expected %q, got %q", tt.id, tt.message, msg)
		}
	}

	if _, err := svc.Products(ctx); err != nil {
		t.Errorf("list after failures: %v", err)
	}
	if _, _, err := svc.Product(ctx, "33333"); !errors.Is(err, types.ErrNotStored) {
		t.Errorf("failed extraction must store nothing, got %v", err)
	}
}

func TestExtractMany(t *testing.T) {
	svc, _ := newTestService(t)

	results := svc.ExtractMany(context.Background(), []string{"11111", "33333", "22222"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ProductID != "11111" || results[0].Err != nil || results[0].Product.Stats.OpinionsCount != 3 {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if !errors.Is(results[1].Err, types.ErrProductNotFound) {
		t.Errorf("unexpected second result %+v", results[1])
	}
	if !errors.Is(results[2].Err, types.ErrNoReviewsYet) {
		t.Errorf("unexpected third result %+v", results[2])
	}
}

func TestChartsAndExport(t *testing.T) {
	svc, cfg := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Charts(ctx, "11111"); !errors.Is(err, types.ErrNotStored) {
		t.Errorf("charts before extraction: expected ErrNotStored, got %v", err)
	}

	if _, err := svc.Extract(ctx, "11111"); err != nil {
		t.Fatalf("extract: %v", err)
	}

	paths, err := svc.Charts(ctx, "11111")
	if err != nil {
		t.Fatalf("charts: %v", err)
	}
	if paths.Pie != filepath.Join(cfg.Charts.OutputDir, "11111_pie.png") {
		t.Errorf("unexpected pie path %s", paths.Pie)
	}

	path, err := svc.Export(ctx, "11111", storage.FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(cfg.Storage.DataDir, "opinions", "11111.csv") {
		t.Errorf("unexpected export path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "1,Ala,recommends,5,Super.,moc,,3,0") {
		t.Errorf("unexpected csv:\n%s", data)
	}

	var sb strings.Builder
	if err := svc.WriteExport(ctx, "11111", storage.FormatJSON, &sb); err != nil {
		t.Fatalf("write export: %v", err)
	}
	if !strings.Contains(sb.String(), `"opinion_id": "3"`) {
		t.Errorf("unexpected json export %s", sb.String())
	}
}

func TestUserMessage(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Error("nil error should have no message")
	}
	if got := UserMessage(fmt.Errorf("wrap: %w", charts.ErrNoData)); got != "Brak opinii do przedstawienia na wykresach." {
		t.Errorf("unexpected message %q", got)
	}
	if got := UserMessage(&types.NormalizationError{Field: "stars", Err: types.ErrMalformedRawNumber}); got != "Nie udało się odczytać opinii ze strony produktu." {
		t.Errorf("unexpected message %q", got)
	}
	if got := UserMessage(errors.New("disk on fire")); got != "Wystąpił błąd wewnętrzny." {
		t.Errorf("unexpected message %q", got)
	}
}
