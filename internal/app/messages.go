package app

import (
	"context"
	"errors"

	"github.com/IshaanNene/ReviewGoat/internal/charts"
	"github.com/IshaanNene/ReviewGoat/internal/types"
)

// UserMessage maps an error returned by the Service to the message shown to
// the user. Unknown errors get a generic message; details stay in the logs.
func UserMessage(err error) string {
	var verr *ValidationError
	var nerr *types.NormalizationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, types.ErrInvalidProductID):
		return "Nieprawidłowe ID produktu."
	case errors.Is(err, types.ErrProductNotFound):
		return "Nie znaleziono produktu o podanym ID."
	case errors.Is(err, types.ErrNoReviewsYet):
		return "Dla produktu o podanym ID nie ma jeszcze żadnej opinii."
	case errors.Is(err, types.ErrNotStored):
		return "Brak zapisanych opinii dla tego produktu."
	case errors.Is(err, types.ErrUnsupportedFormat):
		return "Nieobsługiwany format pliku."
	case errors.Is(err, charts.ErrNoData):
		return "Brak opinii do przedstawienia na wykresach."
	case errors.As(err, &nerr):
		return "Nie udało się odczytać opinii ze strony produktu."
	case errors.Is(err, context.DeadlineExceeded):
		return "Przekroczono limit czasu."
	case errors.Is(err, context.Canceled):
		return "Operacja została przerwana."
	default:
		return "Wystąpił błąd wewnętrzny."
	}
}
