// Package events defines the event payloads published by the activity tracker.
package events

import "time"

// ActivityImportedType is the event_type of ActivityImported.
const ActivityImportedType = "activity.imported"

// ActivityImported is emitted once per activity persisted by a synchronization.
type ActivityImported struct {
	ActivityID        string    `json:"activity_id"`
	ExternalID        string    `json:"external_id"`
	Source            string    `json:"source"`
	SportType         string    `json:"sport_type"`
	Name              string    `json:"name"`
	StartDate         time.Time `json:"start_date"`
	DistanceMeters    float64   `json:"distance_m"`
	MovingTimeSeconds int       `json:"moving_time_s"`
	ImportedAt        time.Time `json:"imported_at"`
}
