package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// FileStore keeps one JSON document per product and kind:
//
//	<data_dir>/opinions/<id>.json   review array
//	<data_dir>/products/<id>.json   product summary
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file store rooted at dataDir.
func NewFileStore(dataDir string, logger *slog.Logger) (*FileStore, error) {
	for _, sub := range []string{"opinions", "products"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, &types.StorageError{Backend: "file", Op: "init", Err: err}
		}
	}
	return &FileStore{
		dir:    dataDir,
		logger: logger.With("component", "file_store"),
	}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) opinionsPath(productID string) string {
	return filepath.Join(s.dir, "opinions", productID+".json")
}

func (s *FileStore) productPath(productID string) string {
	return filepath.Join(s.dir, "products", productID+".json")
}

func (s *FileStore) SaveReviews(_ context.Context, productID string, reviews []types.Review) error {
	if err := checkID(productID); err != nil {
		return err
	}
	if reviews == nil {
		reviews = []types.Review{}
	}
	if err := writeJSON(s.opinionsPath(productID), reviews); err != nil {
		return &types.StorageError{Backend: "file", Op: "save reviews", Err: err}
	}
	s.logger.Debug("reviews saved", "product_id", productID, "count", len(reviews))
	return nil
}

func (s *FileStore) LoadReviews(_ context.Context, productID string) ([]types.Review, error) {
	if err := checkID(productID); err != nil {
		return nil, err
	}
	var reviews []types.Review
	if err := readJSON(s.opinionsPath(productID), &reviews); err != nil {
		return nil, s.loadError(productID, "load reviews", err)
	}
	if reviews == nil {
		reviews = []types.Review{}
	}
	return reviews, nil
}

func (s *FileStore) SaveProduct(_ context.Context, product *types.Product) error {
	if err := checkID(product.ID); err != nil {
		return err
	}
	if err := writeJSON(s.productPath(product.ID), product); err != nil {
		return &types.StorageError{Backend: "file", Op: "save product", Err: err}
	}
	s.logger.Debug("product saved", "product_id", product.ID)
	return nil
}

func (s *FileStore) LoadProduct(_ context.Context, productID string) (*types.Product, error) {
	if err := checkID(productID); err != nil {
		return nil, err
	}
	var product types.Product
	if err := readJSON(s.productPath(productID), &product); err != nil {
		return nil, s.loadError(productID, "load product", err)
	}
	return &product, nil
}

func (s *FileStore) ListProducts(ctx context.Context) ([]*types.Product, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, "products"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []*types.Product{}, nil
		}
		return nil, &types.StorageError{Backend: "file", Op: "list products", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)

	products := make([]*types.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.LoadProduct(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable product", "product_id", id, "error", err)
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *FileStore) loadError(productID, op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", types.ErrNotStored, productID)
	}
	return &types.StorageError{Backend: "file", Op: op, Err: err}
}

// writeJSON encodes v as indented JSON and replaces path atomically.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeAtomic writes through a temp file in the target directory and renames
// it over path, so readers never see a partial file.
func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
