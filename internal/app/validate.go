package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// ProductRequest is the input of an extraction.
type ProductRequest struct {
	ProductID string `json:"product_id" validate:"required,min=5,max=10,number"`
}

// ValidationError reports why a product id was rejected.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return types.ErrInvalidProductID }

// ValidateProductID checks that id is 5 to 10 digits.
func (s *Service) ValidateProductID(id string) error {
	err := s.validate.Struct(ProductRequest{ProductID: id})
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", types.ErrInvalidProductID, err)
	}
	e := verrs[0]
	return &ValidationError{
		Field:   "product_id",
		Tag:     e.Tag(),
		Message: formatValidationError(e),
	}
}

// formatValidationError creates a user-facing message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Wymagane jest podanie ID produktu."
	case "min", "max":
		return "ID produktu powinno mieć od 5 do 10 znaków."
	case "number":
		return "ID produktu musi składać się tylko z cyfr."
	default:
		return fmt.Sprintf("ID produktu nie spełnia reguły '%s'.", e.Tag())
	}
}
