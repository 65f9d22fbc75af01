package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/IshaanNene/ReviewGoat/internal/app"
	"github.com/IshaanNene/ReviewGoat/internal/charts"
	"github.com/IshaanNene/ReviewGoat/internal/config"
	"github.com/IshaanNene/ReviewGoat/internal/observability"
	"github.com/IshaanNene/ReviewGoat/internal/storage"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// ReviewService is what the API needs from the application layer.
type ReviewService interface {
	Extract(ctx context.Context, productID string) (*types.Product, error)
	Products(ctx context.Context) ([]*types.Product, error)
	Product(ctx context.Context, productID string) (*types.Product, []types.Review, error)
	Charts(ctx context.Context, productID string) (*charts.Paths, error)
	WriteExport(ctx context.Context, productID string, format storage.Format, w io.Writer) error
}

// Server provides the JSON API over stored and freshly scraped products.
type Server struct {
	router  *chi.Mux
	cfg     config.ServerConfig
	svc     ReviewService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// productDetail is the body of GET /api/products/{id}.
type productDetail struct {
	Product  *types.Product `json:"product"`
	Opinions []types.Review `json:"opinions"`
}

// NewServer creates a new API server. When metrics is non-nil its handler is
// mounted at metricsPath.
func NewServer(cfg config.ServerConfig, svc ReviewService, metrics *observability.Metrics, metricsPath string, logger *slog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		svc:     svc,
		metrics: metrics,
		logger:  logger.With("component", "api_server"),
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.observe)
	if cfg.RequestTimeout > 0 {
		s.router.Use(s.deadline)
	}

	s.registerRoutes()
	if metrics != nil {
		s.router.Method(http.MethodGet, metricsPath, metrics.Handler())
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("API server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleExtract)
		r.Get("/{id}", s.handleGetProduct)
		r.Post("/{id}/charts", s.handleCharts)
		r.Get("/{id}/download/{format}", s.handleDownload)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body app.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	product, err := s.svc.Extract(r.Context(), body.ProductID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, product)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.svc.Products(r.Context())
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, reviews, err := s.svc.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, productDetail{Product: product, Opinions: reviews})
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	paths, err := s.svc.Charts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, paths)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format, err := storage.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	// Buffer the whole file so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := s.svc.WriteExport(r.Context(), id, format, &buf); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+format.Ext()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.jsonResponse(w, status, map[string]string{"error": app.UserMessage(err)})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidProductID), errors.Is(err, types.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrProductNotFound), errors.Is(err, types.ErrNotStored):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNoReviewsYet), errors.Is(err, charts.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(data)
}
