package stats

import (
	"sort"

	"example.com/activitytracker/internal/domain"
)

// WeekKey identifies an ISO-8601 week.
type WeekKey struct {
	Year int
	Week int
}

// Less orders keys chronologically.
func (k WeekKey) Less(other WeekKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Week < other.Week
}

// TrendStats holds percent changes between the two most recent weeks.
type TrendStats struct {
	Distance   float64 `json:"distance"`
	Activities float64 `json:"activities"`
	Time       float64 `json:"time"`
}

type weekTotals struct {
	distance float64
	hours    float64
	count    int
}

// Trends buckets activities by ISO week and compares the latest week that
// has activities with the one before it. Fewer than two weeks yields zeros.
func Trends(activities []*domain.Activity) TrendStats {
	buckets := make(map[WeekKey]*weekTotals)
	for _, a := range activities {
		year, week := a.StartDate().UTC().ISOWeek()
		key := WeekKey{Year: year, Week: week}
		b, ok := buckets[key]
		if !ok {
			b = &weekTotals{}
			buckets[key] = b
		}
		b.distance += a.DistanceKm()
		b.hours += a.MovingTime().Hours()
		b.count++
	}
	if len(buckets) < 2 {
		return TrendStats{}
	}

	keys := make([]WeekKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	current := buckets[keys[len(keys)-1]]
	previous := buckets[keys[len(keys)-2]]
	return TrendStats{
		Distance:   PercentChange(previous.distance, current.distance),
		Activities: PercentChange(float64(previous.count), float64(current.count)),
		Time:       PercentChange(previous.hours, current.hours),
	}
}

// PercentChange returns the relative change from previous to current in
// percent, rounded to one decimal. A zero baseline yields 100 when current
// is positive and 0 otherwise.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round1((current - previous) / previous * 100)
}
