package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/activitytracker/pkg/events"
)

// PersistenceHandler appends consumed events to activity_event_log.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores msg. Redelivered records are ignored.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	activityID, err := activityIDOf(msg)
	if err != nil {
		return err
	}

	_, err = h.pool.Exec(ctx,
		`INSERT INTO activity_event_log (event_type, activity_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
         ON CONFLICT ON CONSTRAINT activity_event_log_position_key DO NOTHING`,
		msg.EventType,
		activityID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}

// activityIDOf returns nil for event types that do not carry an activity.
func activityIDOf(msg Message) (*string, error) {
	if msg.EventType != events.ActivityImportedType {
		return nil, nil
	}
	var evt events.ActivityImported
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", msg.EventType, err)
	}
	return &evt.ActivityID, nil
}
