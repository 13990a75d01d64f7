// Package source fetches raw activity records from external fitness platforms.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Fetcher yields raw activity records. A non-positive limit means no bound.
type Fetcher interface {
	FetchActivities(ctx context.Context, limit int) ([]RawActivity, error)
}

// ExternalID is the platform identifier of an activity. Strava sends it as a
// JSON number; fixtures and other platforms may send a string.
type ExternalID string

// UnmarshalJSON accepts JSON numbers and strings.
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("external id: %w", err)
	}
	*id = ExternalID(n.String())
	return nil
}

// RawActivity mirrors one element of the Strava athlete activities listing.
// Mandatory attributes are pointers so that absent keys can be told apart
// from zero values.
type RawActivity struct {
	ID                 ExternalID `json:"id"`
	Name               *string    `json:"name"`
	SportType          *string    `json:"sport_type"`
	StartDate          *string    `json:"start_date"`
	Distance           *float64   `json:"distance"`
	MovingTime         *int       `json:"moving_time"`
	ElapsedTime        *int       `json:"elapsed_time"`
	TotalElevationGain *float64   `json:"total_elevation_gain,omitempty"`
	AverageSpeed       *float64   `json:"average_speed,omitempty"`
	MaxSpeed           *float64   `json:"max_speed,omitempty"`
	AverageHeartrate   *float64   `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64   `json:"max_heartrate,omitempty"`
	AverageCadence     *float64   `json:"average_cadence,omitempty"`
	AverageWatts       *float64   `json:"average_watts,omitempty"`
	Kilojoules         *float64   `json:"kilojoules,omitempty"`
	Description        *string    `json:"description,omitempty"`
}

func truncate(items []RawActivity, limit int) []RawActivity {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
