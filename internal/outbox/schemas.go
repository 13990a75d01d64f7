package outbox

import "example.com/activitytracker/pkg/events"

const activityImportedSchema = `{
  "type": "object",
  "title": "ActivityImported",
  "properties": {
    "activity_id": {"type": "string"},
    "external_id": {"type": "string"},
    "source": {"type": "string"},
    "sport_type": {"type": "string"},
    "name": {"type": "string"},
    "start_date": {"type": "string", "format": "date-time"},
    "distance_m": {"type": "number"},
    "moving_time_s": {"type": "integer"},
    "imported_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "external_id", "source", "sport_type", "start_date", "distance_m", "moving_time_s", "imported_at"],
  "additionalProperties": false
}`

var schemaCatalog = map[string]string{
	events.ActivityImportedType: activityImportedSchema,
}
