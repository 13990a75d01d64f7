package stats

import (
	"math"

	"example.com/activitytracker/internal/domain"
)

// OverviewStats summarises a set of activities.
type OverviewStats struct {
	TotalActivities int     `json:"total_activities"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalTimeHours  float64 `json:"total_time_hours"`
	TotalElevationM float64 `json:"total_elevation_m"`
	AverageSpeedKmh float64 `json:"average_speed_kmh"`
	WithHRData      int     `json:"with_hr_data"`
	WithPowerData   int     `json:"with_power_data"`
}

// Overview totals distance, moving time and elevation, and averages the
// per-activity average speed over activities that recorded one.
func Overview(activities []*domain.Activity) OverviewStats {
	var (
		out        OverviewStats
		speedSum   float64
		speedCount int
	)
	out.TotalActivities = len(activities)
	for _, a := range activities {
		out.TotalDistanceKm += a.DistanceKm()
		out.TotalTimeHours += a.MovingTime().Hours()
		if a.HasElevationData() {
			out.TotalElevationM += *a.ElevationGain()
		}
		if a.HasSpeedData() {
			speedSum += *a.AverageSpeedKmh()
			speedCount++
		}
		if a.HasHeartRateData() {
			out.WithHRData++
		}
		if a.HasPowerData() {
			out.WithPowerData++
		}
	}
	if speedCount > 0 {
		out.AverageSpeedKmh = speedSum / float64(speedCount)
	}

	out.TotalDistanceKm = round1(out.TotalDistanceKm)
	out.TotalTimeHours = round1(out.TotalTimeHours)
	out.TotalElevationM = math.Round(out.TotalElevationM)
	out.AverageSpeedKmh = round1(out.AverageSpeedKmh)
	return out
}
