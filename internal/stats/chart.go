package stats

import (
	"math"
	"sort"

	"example.com/activitytracker/internal/domain"
)

// ChartPoint is one bucket of a chart series.
type ChartPoint struct {
	Date      string  `json:"date"`
	Distance  float64 `json:"distance"`
	Time      float64 `json:"time"`
	Count     int     `json:"count"`
	Elevation float64 `json:"elevation"`
}

// ChartSeries buckets activities by calendar day or month (UTC) and returns
// the points in ascending date order.
func ChartSeries(activities []*domain.Activity, granularity Granularity) []ChartPoint {
	layout := granularity.layout()
	index := make(map[string]int)
	out := make([]ChartPoint, 0)
	for _, a := range activities {
		date := a.StartDate().UTC().Format(layout)
		i, ok := index[date]
		if !ok {
			i = len(out)
			index[date] = i
			out = append(out, ChartPoint{Date: date})
		}
		out[i].Distance += a.DistanceKm()
		out[i].Time += a.MovingTime().Hours()
		out[i].Count++
		if a.HasElevationData() {
			out[i].Elevation += *a.ElevationGain()
		}
	}

	for i := range out {
		out[i].Distance = round1(out[i].Distance)
		out[i].Time = round1(out[i].Time)
		out[i].Elevation = math.Round(out[i].Elevation)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
