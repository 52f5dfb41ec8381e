package api

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"timesheet.service/internal/api/handler"
	"timesheet.service/pkg/logger"
)

type Handlers struct {
	Directory    *handler.DirectoryHandler
	Occurrences  *handler.OccurrenceHandler
	Worklogs     *handler.WorklogHandler
	Integrations *handler.IntegrationHandler
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(h Handlers) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", h.Directory.Health).Methods(http.MethodGet)

	api.HandleFunc("/employees", h.Directory.ListEmployees).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", h.Directory.GetEmployee).Methods(http.MethodGet)
	api.HandleFunc("/employees/{id}", h.Directory.UpdateEmployee).Methods(http.MethodPatch)

	api.HandleFunc("/sectors", h.Directory.ListSectors).Methods(http.MethodGet)
	api.HandleFunc("/sectors", h.Directory.CreateSector).Methods(http.MethodPost)
	api.HandleFunc("/sectors/{id}", h.Directory.UpdateSector).Methods(http.MethodPatch)

	// stats is registered before {id} so it is not read as an id.
	api.HandleFunc("/occurrences", h.Occurrences.List).Methods(http.MethodGet)
	api.HandleFunc("/occurrences/stats", h.Occurrences.Stats).Methods(http.MethodGet)
	api.HandleFunc("/occurrences/{id}", h.Occurrences.Get).Methods(http.MethodGet)
	api.HandleFunc("/occurrences/{id}/ack", h.Occurrences.Ack).Methods(http.MethodPost)
	api.HandleFunc("/occurrences/{id}/resolve", h.Occurrences.Resolve).Methods(http.MethodPost)

	api.HandleFunc("/justifications", h.Occurrences.Justify).Methods(http.MethodPost)
	api.HandleFunc("/justifications", h.Occurrences.ListJustifications).Methods(http.MethodGet)
	api.HandleFunc("/justifications/{id}", h.Occurrences.GetJustification).Methods(http.MethodGet)

	api.HandleFunc("/worklogs/calculate", h.Worklogs.Calculate).Methods(http.MethodPost)
	api.HandleFunc("/worklogs/close", h.Worklogs.Close).Methods(http.MethodPost)

	api.HandleFunc("/integrations/sync", h.Integrations.Sync).Methods(http.MethodPost)
	api.HandleFunc("/integrations/status", h.Integrations.Status).Methods(http.MethodGet)

	api.HandleFunc("/dashboard/kpis", h.Directory.DashboardKPIs).Methods(http.MethodGet)

	return r
}

// WithCORS lets the dashboard origins call the API. It wraps the whole router
// so preflight requests are answered before route matching.
func WithCORS(next http.Handler, origins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Traceparent"},
		MaxAge:         300,
	})(next)
}

// LoggerMiddleware puts a trace-aware logger in the request context and logs
// one line per request.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.EnrichContextWithLogger(r.Context())
		r = r.WithContext(ctx)

		m := httpsnoop.CaptureMetrics(next, w, r)

		event := log.Ctx(ctx).Info()
		if m.Code >= http.StatusInternalServerError {
			event = log.Ctx(ctx).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Dur("duration", m.Duration).
			Msg("HTTP request")
	})
}
