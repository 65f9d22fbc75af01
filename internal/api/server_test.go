package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/ReviewGoat/internal/app"
	"github.com/IshaanNene/ReviewGoat/internal/charts"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/observability"
	"github.com/IshaanNene/ReviewGoat/internal/storage"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeService serves one stored product, "12345".
type fakeService struct{}

var storedProduct = &types.Product{
	ID:   "12345",
	Name: "Telefon",
	Stats: types.Stats{
		OpinionsCount: 1,
		AverageStars:  4.5,
		Pros:          []types.Frequency{},
		Cons:          []types.Frequency{},
	},
}

var storedReviews = []types.Review{{ID: "1", Author: "Anna", Stars: 4.5, Pros: []string{}, Cons: []string{}}}

func (fakeService) Extract(ctx context.Context, id string) (*types.Product, error) {
	switch id {
	case "504504":
		<-ctx.Done()
		return nil, ctx.Err()
	case "12345":
		return storedProduct, nil
	case "404404":
		return nil, fmt.Errorf("%w: %s", types.ErrProductNotFound, id)
	case "422422":
		return nil, fmt.Errorf("%w: %s", types.ErrNoReviewsYet, id)
	default:
		return nil, &app.ValidationError{Field: "product_id", Tag: "number", Message: "ID produktu musi składać się tylko z cyfr."}
	}
}

func (fakeService) Products(context.Context) ([]*types.Product, error) {
	return []*types.Product{storedProduct}, nil
}

func (fakeService) Product(_ context.Context, id string) (*types.Product, []types.Review, error) {
	if id != "12345" {
		return nil, nil, fmt.Errorf("%w: %s", types.ErrNotStored, id)
	}
	return storedProduct, storedReviews, nil
}

func (fakeService) Charts(_ context.Context, id string) (*charts.Paths, error) {
	if id != "12345" {
		return nil, fmt.Errorf("%w: %s", types.ErrNotStored, id)
	}
	return &charts.Paths{Pie: "charts/12345_pie.png", Bar: "charts/12345_bar.png"}, nil
}

func (fakeService) WriteExport(_ context.Context, id string, format storage.Format, w io.Writer) error {
	if id != "12345" {
		return fmt.Errorf("%w: %s", types.ErrNotStored, id)
	}
	return storage.WriteExport(w, format, storedReviews)
}

func newTestServer(t *testing.T, metrics *observability.Metrics) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	s := NewServer(cfg.Server, fakeService{}, metrics, cfg.Metrics.Path, testLogger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestExtractStatusCodes(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		body   string
		status int
	}{
		{`{"product_id": "12345"}`, http.StatusCreated},
		{`{"product_id": "404404"}`, http.StatusNotFound},
		{`{"product_id": "422422"}`, http.StatusUnprocessableEntity},
		{`{"product_id": "12a45"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Post(ts.URL+"/api/products", "application/json", strings.NewReader(tt.body))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.status {
			t.Errorf("POST %s: expected %d, got %d", tt.body, tt.status, resp.StatusCode)
		}
	}
}

func TestExtractErrorMessage(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/products", "application/json", strings.NewReader(`{"product_id": "404404"}`))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body map[string]string
	decode(t, resp, &body)
	if body["error"] != "Nie znaleziono produktu o podanym ID." {
		t.Errorf("unexpected error message %q", body["error"])
	}
}

func TestProductRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/products")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var list []types.Product
	decode(t, resp, &list)
	if len(list) != 1 || list[0].ID != "12345" {
		t.Errorf("unexpected list %+v", list)
	}

	resp, err = http.Get(ts.URL + "/api/products/12345")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var detail struct {
		Product  types.Product  `json:"product"`
		Opinions []types.Review `json:"opinions"`
	}
	decode(t, resp, &detail)
	if detail.Product.Name != "Telefon" || len(detail.Opinions) != 1 || detail.Opinions[0].Author != "Anna" {
		t.Errorf("unexpected detail %+v", detail)
	}

	resp, err = http.Get(ts.URL + "/api/products/99999")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/products/12345/charts", "application/json", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var paths charts.Paths
	decode(t, resp, &paths)
	if paths.Pie != "charts/12345_pie.png" {
		t.Errorf("unexpected chart paths %+v", paths)
	}
}

func TestDownload(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/products/12345/download/csv")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="12345.csv"` {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !strings.HasPrefix(string(body), "opinion_id,author") {
		t.Errorf("unexpected csv body %q", body)
	}

	for path, status := range map[string]int{
		"/api/products/12345/download/pdf": http.StatusBadRequest,
		"/api/products/99999/download/csv": http.StatusNotFound,
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != status {
			t.Errorf("GET %s: expected %d, got %d", path, status, resp.StatusCode)
		}
	}
}

// headerCounter counts WriteHeader calls reaching the client.
type headerCounter struct {
	*httptest.ResponseRecorder
	calls int
}

func (h *headerCounter) WriteHeader(code int) {
	h.calls++
	h.ResponseRecorder.WriteHeader(code)
}

func TestRequestTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.RequestTimeout = 20 * time.Millisecond
	s := NewServer(cfg.Server, fakeService{}, nil, cfg.Metrics.Path, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(`{"product_id": "504504"}`))
	rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}
	if rec.calls != 1 {
		t.Errorf("expected a single WriteHeader, got %d", rec.calls)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	if body["error"] != "Przekroczono limit czasu." {
		t.Errorf("unexpected error message %q", body["error"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, observability.NewMetrics())

	if resp, err := http.Get(ts.URL + "/api/health"); err == nil {
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `reviewgoat_http_requests_total{method="GET",route="/api/health",status="200"} 1`) {
		t.Errorf("expected API request in metrics, got:\n%s", body)
	}
}
