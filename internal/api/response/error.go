package response

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core"
)

// HandleError maps domain errors to HTTP responses. Unknown errors are logged
// and answered with a generic 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		NotFound(w, "Resource not found")
	case errors.Is(err, core.ErrInvalidInput):
		BadRequest(w, err.Error())
	case errors.Is(err, core.ErrInvalidAction):
		BadRequest(w, "Invalid action, expected approve, adjust or request_details")
	case errors.Is(err, core.ErrOccurrenceAlreadyProcessed):
		Conflict(w, "Occurrence already processed")
	case errors.Is(err, core.ErrOccurrenceAlreadyResolved):
		Conflict(w, "Occurrence already resolved")
	case errors.Is(err, core.ErrProviderReadOnly):
		Forbidden(w, "Provider integration is read-only")
	default:
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		InternalServerError(w, "An unexpected error occurred")
	}
}
