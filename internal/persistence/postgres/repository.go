// Package postgres provides Postgres-backed persistence for activities and
// their outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/observability"
	"example.com/activitytracker/pkg/events"
)

const (
	uniqueViolation            = "23505"
	externalIDUniqueConstraint = "activities_external_id_key"
)

const activityColumns = `activity_id, external_id, name, sport_type, start_date, distance_m, moving_time_s, elapsed_time_s, source,
        elevation_gain_m, average_speed_mps, max_speed_mps, average_heartrate, max_heartrate, average_cadence, average_watts, kilojoules,
        description, created_at, updated_at`

// Repository provides Postgres-backed persistence for activities and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ExistsByExternalID implements domain.ActivityRepository.
func (r *Repository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM activities WHERE external_id=$1)`, externalID).Scan(&exists)
	return exists, err
}

// Save upserts the activity. A first insert records an activity.imported
// outbox event inside the same transaction.
func (r *Repository) Save(ctx context.Context, activity *domain.Activity) (err error) {
	snap := activity.Snapshot()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const upsert = `INSERT INTO activities (` + activityColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
        ON CONFLICT (activity_id) DO UPDATE SET
            elevation_gain_m=EXCLUDED.elevation_gain_m,
            average_speed_mps=EXCLUDED.average_speed_mps,
            max_speed_mps=EXCLUDED.max_speed_mps,
            average_heartrate=EXCLUDED.average_heartrate,
            max_heartrate=EXCLUDED.max_heartrate,
            average_cadence=EXCLUDED.average_cadence,
            average_watts=EXCLUDED.average_watts,
            kilojoules=EXCLUDED.kilojoules,
            description=EXCLUDED.description,
            updated_at=EXCLUDED.updated_at
        RETURNING (xmax = 0)`

	var inserted bool
	err = tx.QueryRow(ctx, upsert,
		snap.ID,
		snap.ExternalID,
		snap.Name,
		snap.Sport,
		snap.StartDate,
		snap.DistanceMeters,
		snap.MovingTimeSeconds,
		snap.ElapsedTimeSeconds,
		snap.Source,
		snap.ElevationGain,
		snap.AverageSpeed,
		snap.MaxSpeed,
		snap.AverageHeartRate,
		snap.MaxHeartRate,
		snap.AverageCadence,
		snap.AverageWatts,
		snap.Kilojoules,
		snap.Description,
		snap.CreatedAt,
		snap.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		if isExternalIDConflict(err) {
			err = fmt.Errorf("%w: %s", domain.ErrDuplicateExternalID, snap.ExternalID)
		}
		return err
	}

	if inserted {
		if err = r.insertOutbox(ctx, tx, snap, events.ActivityImportedType, events.ActivityImported{
			ActivityID:        snap.ID.String(),
			ExternalID:        snap.ExternalID,
			Source:            snap.Source,
			SportType:         snap.Sport,
			Name:              snap.Name,
			StartDate:         snap.StartDate,
			DistanceMeters:    snap.DistanceMeters,
			MovingTimeSeconds: snap.MovingTimeSeconds,
			ImportedAt:        snap.CreatedAt,
		}); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted("postgres", snap.UpdatedAt)
	return nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, snap domain.Snapshot, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	aggregateID := snap.ID.String()
	dedupeKey := fmt.Sprintf("%s:%s", aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"activity",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(snap),
		body,
		dedupeKey,
	)
	return err
}

// Get returns nil, nil when no activity has the id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activities WHERE activity_id=$1`, id)
	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return activity, nil
}

// List returns matching activities newest first. A non-positive limit returns every row after offset.
func (r *Repository) List(ctx context.Context, filter domain.Filter, offset, limit int) ([]*domain.Activity, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + activityColumns + ` FROM activities` + where + ` ORDER BY start_date DESC, external_id DESC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return r.query(ctx, query, args...)
}

// FindByDateRange returns activities started within [start, end], newest first.
func (r *Repository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Activity, error) {
	return r.List(ctx, domain.Filter{StartDate: start, EndDate: end}, 0, 0)
}

// Count implements domain.ActivityRepository.
func (r *Repository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	where, args := filterClause(filter)
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&count)
	return count, err
}

// CountBySport implements domain.ActivityRepository.
func (r *Repository) CountBySport(ctx context.Context) (map[domain.Sport]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT sport_type, COUNT(*) FROM activities GROUP BY sport_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Sport]int)
	for rows.Next() {
		var (
			sport string
			count int
		)
		if err := rows.Scan(&sport, &count); err != nil {
			return nil, err
		}
		counts[domain.Sport(sport)] = count
	}
	return counts, rows.Err()
}

func (r *Repository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var snap domain.Snapshot
	if err := row.Scan(
		&snap.ID,
		&snap.ExternalID,
		&snap.Name,
		&snap.Sport,
		&snap.StartDate,
		&snap.DistanceMeters,
		&snap.MovingTimeSeconds,
		&snap.ElapsedTimeSeconds,
		&snap.Source,
		&snap.ElevationGain,
		&snap.AverageSpeed,
		&snap.MaxSpeed,
		&snap.AverageHeartRate,
		&snap.MaxHeartRate,
		&snap.AverageCadence,
		&snap.AverageWatts,
		&snap.Kilojoules,
		&snap.Description,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return domain.RestoreActivity(snap)
}

func filterClause(filter domain.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Sport != "" {
		add("sport_type = $%d", string(filter.Sport))
	}
	if filter.Source != "" {
		add("source = $%d", string(filter.Source))
	}
	if !filter.StartDate.IsZero() {
		add("start_date >= $%d", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		add("start_date <= $%d", filter.EndDate)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func isExternalIDConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == externalIDUniqueConstraint
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.Snapshot) string
}

var eventCatalog = map[string]EventMetadata{
	events.ActivityImportedType: {
		Topic:         "activity_imported",
		SchemaSubject: "activity_imported-value",
		PartitionKeyFn: func(s domain.Snapshot) string {
			return fmt.Sprintf("%s:%s", s.Source, s.ExternalID)
		},
	},
}
