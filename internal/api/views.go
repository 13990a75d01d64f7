package api

import (
	"math"
	"time"

	"example.com/activitytracker/internal/domain"
)

// ActivityView is the list representation of an activity. Optional metrics
// are omitted when the activity did not record them.
type ActivityView struct {
	ID                  string   `json:"id"`
	ExternalID          string   `json:"external_id"`
	Name                string   `json:"name"`
	SportType           string   `json:"sport_type"`
	SportIcon           string   `json:"sport_icon"`
	StartDate           string   `json:"start_date"`
	DistanceKm          float64  `json:"distance_km"`
	MovingTimeFormatted string   `json:"moving_time_formatted"`
	MovingTimeSeconds   int      `json:"moving_time_seconds"`
	Source              string   `json:"source"`
	IsEndurance         bool     `json:"is_endurance"`
	AverageSpeedKmh     *float64 `json:"average_speed_kmh,omitempty"`
	AverageHeartrate    *int     `json:"average_heartrate,omitempty"`
	IntensityLevel      string   `json:"intensity_level,omitempty"`
	ElevationM          *float64 `json:"elevation_m,omitempty"`
	AverageWatts        *float64 `json:"average_watts,omitempty"`
}

// ActivityDetailView adds the fields shown on the single activity page.
type ActivityDetailView struct {
	ActivityView
	ElapsedTimeSeconds   int      `json:"elapsed_time_seconds"`
	ElapsedTimeFormatted string   `json:"elapsed_time_formatted"`
	Description          string   `json:"description"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
	MaxSpeedKmh          *float64 `json:"max_speed_kmh,omitempty"`
	MaxHeartrate         *int     `json:"max_heartrate,omitempty"`
	AverageCadence       *float64 `json:"average_cadence,omitempty"`
	Kilojoules           *float64 `json:"kilojoules,omitempty"`
}

// Pagination describes the page returned by a list request.
type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	Pages       int  `json:"pages"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Success        bool              `json:"success"`
	Data           []ActivityView    `json:"data"`
	Pagination     Pagination        `json:"pagination"`
	FiltersApplied map[string]string `json:"filters_applied"`
}

// ActivityResponse wraps a single activity.
type ActivityResponse struct {
	Success bool               `json:"success"`
	Data    ActivityDetailView `json:"data"`
}

// SportView describes one practised sport.
type SportView struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
	Icon        string `json:"icon"`
	IsEndurance bool   `json:"is_endurance"`
}

// SportsResponse lists practised sports.
type SportsResponse struct {
	Success     bool        `json:"success"`
	Data        []SportView `json:"data"`
	TotalSports int         `json:"total_sports"`
}

// SyncResponse reports the outcome of a synchronization.
type SyncResponse struct {
	Success           bool     `json:"success"`
	SyncedCount       int      `json:"synced_count"`
	Errors            []string `json:"errors"`
	HasPartialSuccess bool     `json:"has_partial_success"`
	Message           string   `json:"message"`
	Source            string   `json:"source"`
}

func toActivityView(a *domain.Activity) ActivityView {
	view := ActivityView{
		ID:                  a.ID().String(),
		ExternalID:          a.ExternalID(),
		Name:                a.Name(),
		SportType:           string(a.Sport()),
		SportIcon:           a.Sport().Icon(),
		StartDate:           a.StartDate().UTC().Format(time.RFC3339),
		DistanceKm:          round(a.DistanceKm(), 2),
		MovingTimeFormatted: a.MovingTimeFormatted(),
		MovingTimeSeconds:   a.MovingTime().Seconds(),
		Source:              string(a.Source()),
		IsEndurance:         a.IsEndurance(),
	}
	if kmh := a.AverageSpeedKmh(); kmh != nil {
		view.AverageSpeedKmh = rounded(*kmh, 1)
	}
	if hr := a.AverageHeartRate(); hr != nil {
		bpm := hr.Bpm()
		view.AverageHeartrate = &bpm
		view.IntensityLevel = string(a.IntensityLevel())
	}
	if a.HasElevationData() {
		view.ElevationM = rounded(*a.ElevationGain(), 0)
	}
	if watts := a.AverageWatts(); watts != nil {
		view.AverageWatts = rounded(*watts, 0)
	}
	return view
}

func toActivityDetailView(a *domain.Activity) ActivityDetailView {
	view := ActivityDetailView{
		ActivityView:         toActivityView(a),
		ElapsedTimeSeconds:   a.ElapsedTime().Seconds(),
		ElapsedTimeFormatted: a.ElapsedTime().Formatted(),
		Description:          a.Description(),
		CreatedAt:            a.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:            a.UpdatedAt().UTC().Format(time.RFC3339),
		AverageCadence:       a.AverageCadence(),
		Kilojoules:           a.Kilojoules(),
	}
	if kmh := a.MaxSpeedKmh(); kmh != nil {
		view.MaxSpeedKmh = rounded(*kmh, 1)
	}
	if hr := a.MaxHeartRate(); hr != nil {
		bpm := hr.Bpm()
		view.MaxHeartrate = &bpm
	}
	return view
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func rounded(v float64, places int) *float64 {
	r := round(v, places)
	return &r
}
