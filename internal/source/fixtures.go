package source

import (
	"context"
	"fmt"
	"time"
)

const fixtureDateLayout = "2006-01-02T15:04:05Z"

// FixtureSource serves three built-in sample activities relative to the
// current time. It is used when no platform credentials are configured.
type FixtureSource struct {
	now func() time.Time
}

// NewFixtureSource constructs a FixtureSource reading the wall clock.
func NewFixtureSource() *FixtureSource {
	return &FixtureSource{now: time.Now}
}

// FetchActivities implements Fetcher.
func (f *FixtureSource) FetchActivities(ctx context.Context, limit int) ([]RawActivity, error) {
	return truncate(FixtureActivities(f.now()), limit), nil
}

// FixtureActivities builds the sample run, ride and swim. Ids embed the unix
// time so repeated syncs at different seconds import fresh records.
func FixtureActivities(now time.Time) []RawActivity {
	now = now.UTC()
	stamp := now.Unix()
	id := func(n int) ExternalID { return ExternalID(fmt.Sprintf("fake_%d_%d", n, stamp)) }
	date := func(t time.Time) *string { s := t.Format(fixtureDateLayout); return &s }

	return []RawActivity{
		{
			ID:                 id(1),
			Name:               str("Morning run"),
			SportType:          str("Run"),
			StartDate:          date(now.AddDate(0, 0, -2)),
			Distance:           num(5200),
			MovingTime:         integer(1800),
			ElapsedTime:        integer(1900),
			AverageSpeed:       num(2.89),
			AverageHeartrate:   num(150),
			MaxHeartrate:       num(175),
			TotalElevationGain: num(50),
			AverageCadence:     num(85.5),
			Kilojoules:         num(300),
		},
		{
			ID:                 id(2),
			Name:               str("Bike ride"),
			SportType:          str("Ride"),
			StartDate:          date(now.AddDate(0, 0, -1)),
			Distance:           num(28000),
			MovingTime:         integer(3600),
			ElapsedTime:        integer(3800),
			AverageSpeed:       num(7.78),
			MaxSpeed:           num(12.5),
			AverageHeartrate:   num(140),
			MaxHeartrate:       num(165),
			AverageWatts:       num(180),
			TotalElevationGain: num(350),
			AverageCadence:     num(90),
			Kilojoules:         num(650),
		},
		{
			ID:           id(3),
			Name:         str("Pool swim"),
			SportType:    str("Swim"),
			StartDate:    date(now),
			Distance:     num(1500),
			MovingTime:   integer(2400),
			ElapsedTime:  integer(2700),
			AverageSpeed: num(0.625),
		},
	}
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }
func integer(i int) *int     { return &i }
