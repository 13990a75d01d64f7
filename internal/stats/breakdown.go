package stats

import (
	"sort"

	"example.com/activitytracker/internal/domain"
)

// SportStats aggregates the activities of one sport.
type SportStats struct {
	Sport       domain.Sport `json:"sport"`
	Icon        string       `json:"icon"`
	Count       int          `json:"count"`
	DistanceKm  float64      `json:"distance_km"`
	TimeHours   float64      `json:"time_hours"`
	IsEndurance bool         `json:"is_endurance"`
}

// SportBreakdown groups activities by sport, most frequent first. Equal
// counts are ordered by sport name.
func SportBreakdown(activities []*domain.Activity) []SportStats {
	index := make(map[domain.Sport]int)
	out := make([]SportStats, 0)
	for _, a := range activities {
		sport := a.Sport()
		i, ok := index[sport]
		if !ok {
			i = len(out)
			index[sport] = i
			out = append(out, SportStats{Sport: sport, Icon: sport.Icon(), IsEndurance: sport.IsEndurance()})
		}
		out[i].Count++
		out[i].DistanceKm += a.DistanceKm()
		out[i].TimeHours += a.MovingTime().Hours()
	}

	for i := range out {
		out[i].DistanceKm = round1(out[i].DistanceKm)
		out[i].TimeHours = round1(out[i].TimeHours)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sport < out[j].Sport
	})
	return out
}
