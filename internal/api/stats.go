package api

import (
	"net/http"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/stats"
)

var chartMetrics = map[string]struct{}{
	"distance":  {},
	"time":      {},
	"count":     {},
	"elevation": {},
}

// StatsOverview bundles the dashboard figures for one period.
type StatsOverview struct {
	Period         stats.Period        `json:"period"`
	SportFilter    *string             `json:"sport_filter"`
	DateRange      DateRange           `json:"date_range"`
	Overview       stats.OverviewStats `json:"overview"`
	Trends         stats.TrendStats    `json:"trends"`
	SportBreakdown []stats.SportStats  `json:"sport_breakdown"`
}

// DateRange is the inclusive window a statistic covers.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// StatsOverviewResponse wraps StatsOverview.
type StatsOverviewResponse struct {
	Success bool          `json:"success"`
	Data    StatsOverview `json:"data"`
}

// ChartMetadata describes a chart series.
type ChartMetadata struct {
	Period      stats.Period `json:"period"`
	SportFilter *string      `json:"sport_filter"`
	Metric      string       `json:"metric"`
	TotalPoints int          `json:"total_points"`
}

// ChartResponse carries the chart points and their metadata.
type ChartResponse struct {
	Success  bool               `json:"success"`
	Data     []stats.ChartPoint `json:"data"`
	Metadata ChartMetadata      `json:"metadata"`
}

func (h *Handler) statsOverview(w http.ResponseWriter, r *http.Request) {
	period := stats.ParsePeriod(r.URL.Query().Get("period"))
	sport, ok := parseSportParam(w, r.URL.Query().Get("sport"))
	if !ok {
		return
	}

	start, end := period.Range(h.now().UTC())
	activities, err := h.activities.ActivitiesBetween(r.Context(), start, end, sport)
	if err != nil {
		h.serverError(w, "stats overview", err)
		return
	}

	writeJSON(w, http.StatusOK, StatsOverviewResponse{
		Success: true,
		Data: StatsOverview{
			Period:         period,
			SportFilter:    sportFilter(sport),
			DateRange:      DateRange{Start: start.Format(dateLayout), End: end.Format(dateLayout)},
			Overview:       stats.Overview(activities),
			Trends:         stats.Trends(activities),
			SportBreakdown: stats.SportBreakdown(activities),
		},
	})
}

func (h *Handler) chartData(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	period := stats.ParsePeriod(query.Get("period"))
	sport, ok := parseSportParam(w, query.Get("sport"))
	if !ok {
		return
	}
	metric := query.Get("metric")
	if metric == "" {
		metric = "distance"
	}
	if _, known := chartMetrics[metric]; !known {
		writeError(w, http.StatusBadRequest, "validation_failed", "metric must be one of distance, time, count, elevation")
		return
	}

	start, end := period.Range(h.now().UTC())
	activities, err := h.activities.ActivitiesBetween(r.Context(), start, end, sport)
	if err != nil {
		h.serverError(w, "chart data", err)
		return
	}

	points := stats.ChartSeries(activities, period.Granularity())
	writeJSON(w, http.StatusOK, ChartResponse{
		Success: true,
		Data:    points,
		Metadata: ChartMetadata{
			Period:      period,
			SportFilter: sportFilter(sport),
			Metric:      metric,
			TotalPoints: len(points),
		},
	})
}

func parseSportParam(w http.ResponseWriter, raw string) (domain.Sport, bool) {
	if raw == "" {
		return "", true
	}
	sport, err := domain.ParseSport(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return "", false
	}
	return sport, true
}

func sportFilter(sport domain.Sport) *string {
	if sport == "" {
		return nil
	}
	s := string(sport)
	return &s
}
