// Package handler wires the catalog's read endpoints. Handlers stay thin:
// parse and validate parameters, call the store, translate errors.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	catalogmetrics "resmatch/internal/catalog/metrics"
	"resmatch/internal/catalog/models"
	"resmatch/internal/catalog/store"
	dErrors "resmatch/pkg/domain-errors"
	"resmatch/pkg/platform/httputil"
)

const (
	defaultProgramLimit = 50
	maxProgramLimit     = 200
	defaultSearchLimit  = 20
	maxSearchLimit      = 100
	minQueryLength      = 2
)

// Handler serves the catalog read API.
type Handler struct {
	store   store.Store
	logger  *slog.Logger
	metrics *catalogmetrics.Metrics
}

// New constructs a catalog handler with its dependencies. metrics may be nil.
func New(s store.Store, logger *slog.Logger, metrics *catalogmetrics.Metrics) *Handler {
	return &Handler{store: s, logger: logger, metrics: metrics}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.HandleHealth)
	r.Get("/disciplines", h.HandleListDisciplines)
	r.Get("/programs", h.HandleListPrograms)
	r.Get("/programs/{programStreamID}", h.HandleGetProgram)
	r.Get("/search", h.HandleSearch)
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleListDisciplines handles GET /disciplines.
func (h *Handler) HandleListDisciplines(w http.ResponseWriter, r *http.Request) {
	defer h.observe("disciplines", time.Now())

	disciplines, err := h.store.ListDisciplines(r.Context())
	if err != nil {
		h.serverError(w, r, "disciplines", err)
		return
	}
	h.count("disciplines", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, disciplines)
}

// HandleListPrograms handles GET /programs.
func (h *Handler) HandleListPrograms(w http.ResponseWriter, r *http.Request) {
	defer h.observe("programs", time.Now())

	filter, err := parseProgramFilter(r)
	if err != nil {
		h.count("programs", http.StatusBadRequest)
		httputil.WriteError(w, err)
		return
	}

	programs, err := h.store.ListPrograms(r.Context(), filter)
	if err != nil {
		h.serverError(w, r, "programs", err)
		return
	}
	h.count("programs", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, programs)
}

// HandleGetProgram handles GET /programs/{programStreamID}.
func (h *Handler) HandleGetProgram(w http.ResponseWriter, r *http.Request) {
	defer h.observe("program_detail", time.Now())

	raw := chi.URLParam(r, "programStreamID")
	if !govalidator.IsInt(raw) {
		h.count("program_detail", http.StatusBadRequest)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "program id must be an integer"))
		return
	}
	id, _ := strconv.ParseInt(raw, 10, 64)

	detail, err := h.store.GetProgram(r.Context(), id)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.count("program_detail", http.StatusNotFound)
			httputil.WriteError(w, err)
			return
		}
		h.serverError(w, r, "program_detail", err)
		return
	}
	h.count("program_detail", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, detail)
}

// HandleSearch handles GET /search.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	defer h.observe("search", time.Now())

	q, err := parseSearchQuery(r)
	if err != nil {
		h.count("search", http.StatusBadRequest)
		httputil.WriteError(w, err)
		return
	}

	hits, err := h.store.Search(r.Context(), q)
	if err != nil {
		h.serverError(w, r, "search", err)
		return
	}
	h.count("search", http.StatusOK)
	httputil.WriteJSON(w, http.StatusOK, hits)
}

func parseProgramFilter(r *http.Request) (models.ProgramFilter, error) {
	filter := models.ProgramFilter{Query: r.URL.Query().Get("q")}

	for name, dst := range map[string]**int64{
		"discipline_id": &filter.DisciplineID,
		"school_id":     &filter.SchoolID,
	} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		if !govalidator.IsInt(raw) {
			return filter, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be an integer", name)
		}
		v, _ := strconv.ParseInt(raw, 10, 64)
		*dst = &v
	}

	limit, offset, err := parsePagination(r, defaultProgramLimit, maxProgramLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset
	return filter, nil
}

func parseSearchQuery(r *http.Request) (models.SearchQuery, error) {
	q := models.SearchQuery{Query: r.URL.Query().Get("query")}
	if len(q.Query) < minQueryLength {
		return q, dErrors.Newf(dErrors.CodeInvalidInput,
			"query must be at least %d characters", minQueryLength)
	}

	limit, offset, err := parsePagination(r, defaultSearchLimit, maxSearchLimit)
	if err != nil {
		return q, err
	}
	q.Limit = limit
	q.Offset = offset
	return q, nil
}

func parsePagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int, err error) {
	limit = defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if !govalidator.IsInt(raw) {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "limit must be an integer")
		}
		limit, _ = strconv.Atoi(raw)
		if limit < 1 || limit > maxLimit {
			return 0, 0, dErrors.Newf(dErrors.CodeInvalidInput, "limit must be between 1 and %d", maxLimit)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if !govalidator.IsInt(raw) {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "offset must be an integer")
		}
		offset, _ = strconv.Atoi(raw)
		if offset < 0 {
			return 0, 0, dErrors.New(dErrors.CodeInvalidInput, "offset must not be negative")
		}
	}
	return limit, offset, nil
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.logger.ErrorContext(r.Context(), "catalog query failed", "endpoint", endpoint, "error", err)
	h.count(endpoint, http.StatusInternalServerError)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "query failed"))
}

func (h *Handler) count(endpoint string, status int) {
	if h.metrics != nil {
		h.metrics.RequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	}
}

func (h *Handler) observe(endpoint string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
