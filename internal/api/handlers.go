// Package api exposes HTTP handlers for the activity tracker.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"example.com/activitytracker/internal/auth"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/observability"
	"example.com/activitytracker/internal/synchronizer"
)

const (
	defaultPageSize = 20
	minPageSize     = 10
	maxPageSize     = 100
	dateLayout      = "2006-01-02"
)

// Handler coordinates HTTP requests with the activity service, the
// synchronization use case and the statistics aggregator.
type Handler struct {
	activities *domain.Service
	sync       *synchronizer.Service
	logger     zerolog.Logger
	now        func() time.Time
}

// NewHandler builds a Handler. A nil now defaults to time.Now.
func NewHandler(activities *domain.Service, sync *synchronizer.Service, logger zerolog.Logger, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		activities: activities,
		sync:       sync,
		logger:     logger.With().Str("component", "api").Logger(),
		now:        now,
	}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", healthz).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/activities", auth.RequireScope(auth.ScopeActivitiesRead, h.listActivities)).Methods(http.MethodGet)
	v1.HandleFunc("/activities/sports", auth.RequireScope(auth.ScopeActivitiesRead, h.listSports)).Methods(http.MethodGet)
	v1.HandleFunc("/activities/sync", auth.RequireScope(auth.ScopeActivitiesSync, h.synchronize)).Methods(http.MethodPost)
	v1.HandleFunc("/activities/{id}", auth.RequireScope(auth.ScopeActivitiesRead, h.getActivity)).Methods(http.MethodGet)
	v1.HandleFunc("/stats/overview", auth.RequireScope(auth.ScopeActivitiesRead, h.statsOverview)).Methods(http.MethodGet)
	v1.HandleFunc("/stats/chart-data", auth.RequireScope(auth.ScopeActivitiesRead, h.chartData)).Methods(http.MethodGet)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 1 {
			page = parsed
		}
	}

	limit := defaultPageSize
	if raw := query.Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = clamp(parsed, minPageSize, maxPageSize)
		}
	}

	filter, err := parseFilter(query.Get("sport"), query.Get("start_date"), query.Get("end_date"), query.Get("source"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.activities.ListActivities(r.Context(), filter, page, limit)
	if err != nil {
		h.serverError(w, "list activities", err)
		return
	}

	items := make([]ActivityView, 0, len(result.Activities))
	for _, a := range result.Activities {
		items = append(items, toActivityView(a))
	}

	writeJSON(w, http.StatusOK, ListActivitiesResponse{
		Success: true,
		Data:    items,
		Pagination: Pagination{
			Page:        result.Page,
			Limit:       result.Limit,
			Total:       result.Total,
			Pages:       result.Pages(),
			HasNext:     result.HasNext(),
			HasPrevious: result.HasPrevious(),
		},
		FiltersApplied: filtersApplied(filter),
	})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid activity id")
		return
	}

	activity, err := h.activities.GetActivity(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		h.serverError(w, "get activity", err)
		return
	}

	writeJSON(w, http.StatusOK, ActivityResponse{Success: true, Data: toActivityDetailView(activity)})
}

func (h *Handler) listSports(w http.ResponseWriter, r *http.Request) {
	counts, err := h.activities.PracticedSports(r.Context())
	if err != nil {
		h.serverError(w, "list sports", err)
		return
	}

	sports := make([]SportView, 0, len(counts))
	for _, c := range counts {
		sports = append(sports, SportView{
			Value:       string(c.Sport),
			Label:       c.Sport.Label(),
			Count:       c.Count,
			Icon:        c.Sport.Icon(),
			IsEndurance: c.Sport.IsEndurance(),
		})
	}

	writeJSON(w, http.StatusOK, SportsResponse{Success: true, Data: sports, TotalSports: len(sports)})
}

// SyncRequest is the optional payload for POST /v1/activities/sync.
type SyncRequest struct {
	Source string `json:"source"`
	Limit  int    `json:"limit"`
}

func (h *Handler) synchronize(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "limit cannot be negative")
		return
	}

	src := domain.SourceStrava
	if s := strings.TrimSpace(req.Source); s != "" {
		src = domain.DataSource(strings.ToLower(s))
	}

	result, err := h.sync.Synchronize(r.Context(), synchronizer.Command{Source: src, Limit: req.Limit})
	if err != nil {
		if errors.Is(err, synchronizer.ErrUnsupportedSource) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		h.serverError(w, "synchronize", err)
		return
	}

	resp := SyncResponse{
		Success:           result.IsSuccessful(),
		SyncedCount:       result.SyncedCount,
		Errors:            result.Errors,
		HasPartialSuccess: result.HasPartialSuccess(),
		Source:            string(src),
	}
	if resp.Errors == nil {
		resp.Errors = []string{}
	}

	status := http.StatusInternalServerError
	switch result.Status() {
	case synchronizer.StatusSuccess:
		status = http.StatusOK
		resp.Message = fmt.Sprintf("%d activities synchronized", result.SyncedCount)
	case synchronizer.StatusPartial:
		status = http.StatusPartialContent
		resp.Message = fmt.Sprintf("%d activities synchronized, %d errors", result.SyncedCount, len(result.Errors))
	default:
		resp.Message = "Synchronization failed"
	}
	writeJSON(w, status, resp)
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}

func parseFilter(sport, startDate, endDate, src string) (domain.Filter, error) {
	var filter domain.Filter
	if sport != "" {
		parsed, err := domain.ParseSport(sport)
		if err != nil {
			return domain.Filter{}, err
		}
		filter.Sport = parsed
	}
	if startDate != "" {
		start, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return domain.Filter{}, errors.New("start_date must be YYYY-MM-DD")
		}
		filter.StartDate = start
	}
	if endDate != "" {
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return domain.Filter{}, errors.New("end_date must be YYYY-MM-DD")
		}
		// inclusive of the whole end day
		filter.EndDate = end.Add(24*time.Hour - time.Second)
	}
	if src != "" {
		filter.Source = domain.DataSource(strings.ToLower(src))
	}
	return filter, nil
}

func filtersApplied(filter domain.Filter) map[string]string {
	applied := make(map[string]string)
	if filter.Sport != "" {
		applied["sport"] = string(filter.Sport)
	}
	if !filter.StartDate.IsZero() {
		applied["start_date"] = filter.StartDate.Format(dateLayout)
	}
	if !filter.EndDate.IsZero() {
		applied["end_date"] = filter.EndDate.Format(dateLayout)
	}
	if filter.Source != "" {
		applied["source"] = string(filter.Source)
	}
	return applied
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
