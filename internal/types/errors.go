package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrProductNotFound    = errors.New("product not found")
	ErrNoReviewsYet       = errors.New("product has no reviews yet")
	ErrNotStored          = errors.New("no stored data for product")
	ErrInvalidProductID   = errors.New("invalid product id")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrEmptyResponse      = errors.New("empty response body")
	ErrUnexpectedStatus   = errors.New("unexpected HTTP status")
	ErrBodyTooLarge       = errors.New("response body exceeds size limit")
	ErrMissingRawValue    = errors.New("missing value")
	ErrValueOutOfRange    = errors.New("value out of range")
	ErrMalformedRawNumber = errors.New("malformed number")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NormalizationError reports a scraped field that could not be coerced to its
// typed form.
type NormalizationError struct {
	ReviewID string
	Field    string
	Value    string
	Err      error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize review %q field %s=%q: %v", e.ReviewID, e.Field, e.Value, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
