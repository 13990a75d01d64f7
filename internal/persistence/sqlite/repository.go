// Package sqlite provides a single-file activity store for local use of the
// tracker, where running Postgres is not worth it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS activities (
    activity_id       TEXT PRIMARY KEY,
    external_id       TEXT NOT NULL UNIQUE,
    name              TEXT NOT NULL,
    sport_type        TEXT NOT NULL,
    start_date        INTEGER NOT NULL,
    distance_m        REAL NOT NULL CHECK (distance_m >= 0),
    moving_time_s     INTEGER NOT NULL CHECK (moving_time_s >= 0),
    elapsed_time_s    INTEGER NOT NULL CHECK (elapsed_time_s >= 0),
    source            TEXT NOT NULL,
    elevation_gain_m  REAL,
    average_speed_mps REAL,
    max_speed_mps     REAL,
    average_heartrate INTEGER,
    max_heartrate     INTEGER,
    average_cadence   REAL,
    average_watts     REAL,
    kilojoules        REAL,
    description       TEXT,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS activities_start_date_idx ON activities (start_date DESC);
CREATE INDEX IF NOT EXISTS activities_sport_type_idx ON activities (sport_type);
`

const activityColumns = `activity_id, external_id, name, sport_type, start_date, distance_m, moving_time_s, elapsed_time_s, source,
        elevation_gain_m, average_speed_mps, max_speed_mps, average_heartrate, max_heartrate, average_cadence, average_watts, kilojoules,
        description, created_at, updated_at`

// Open opens (or creates) the database file at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY under concurrent syncs
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// Repository implements domain.ActivityRepository on SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository wraps an open database. The schema must already exist; see Open.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM activities WHERE external_id = ?)`, externalID).Scan(&exists)
	return exists, err
}

func (r *Repository) Save(ctx context.Context, activity *domain.Activity) error {
	s := activity.Snapshot()
	const upsert = `INSERT INTO activities (` + activityColumns + `)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT (activity_id) DO UPDATE SET
            elevation_gain_m=excluded.elevation_gain_m,
            average_speed_mps=excluded.average_speed_mps,
            max_speed_mps=excluded.max_speed_mps,
            average_heartrate=excluded.average_heartrate,
            max_heartrate=excluded.max_heartrate,
            average_cadence=excluded.average_cadence,
            average_watts=excluded.average_watts,
            kilojoules=excluded.kilojoules,
            description=excluded.description,
            updated_at=excluded.updated_at`

	_, err := r.db.ExecContext(ctx, upsert,
		s.ID.String(),
		s.ExternalID,
		s.Name,
		s.Sport,
		s.StartDate.UnixNano(),
		s.DistanceMeters,
		s.MovingTimeSeconds,
		s.ElapsedTimeSeconds,
		s.Source,
		s.ElevationGain,
		s.AverageSpeed,
		s.MaxSpeed,
		s.AverageHeartRate,
		s.MaxHeartRate,
		s.AverageCadence,
		s.AverageWatts,
		s.Kilojoules,
		s.Description,
		s.CreatedAt.UnixNano(),
		s.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isExternalIDConflict(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateExternalID, s.ExternalID)
		}
		return err
	}
	observability.RecordActivityPersisted("sqlite", s.UpdatedAt)
	return nil
}

// Get returns nil, nil when no activity has the id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE activity_id = ?`, id.String())
	activity, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return activity, err
}

func (r *Repository) List(ctx context.Context, filter domain.Filter, offset, limit int) ([]*domain.Activity, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + activityColumns + ` FROM activities` + where + ` ORDER BY start_date DESC, external_id DESC`
	// sqlite only accepts OFFSET after a LIMIT; -1 means unbounded
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(offset, 0))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, activity)
	}
	return out, rows.Err()
}

func (r *Repository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Activity, error) {
	return r.List(ctx, domain.Filter{StartDate: start, EndDate: end}, 0, 0)
}

func (r *Repository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	where, args := filterClause(filter)
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`+where, args...).Scan(&n)
	return n, err
}

func (r *Repository) CountBySport(ctx context.Context) (map[domain.Sport]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT sport_type, COUNT(*) FROM activities GROUP BY sport_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Sport]int)
	for rows.Next() {
		var (
			sport string
			n     int
		)
		if err := rows.Scan(&sport, &n); err != nil {
			return nil, err
		}
		counts[domain.Sport(sport)] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*domain.Activity, error) {
	var (
		s                       domain.Snapshot
		id                      string
		start, created, updated int64
	)
	if err := row.Scan(
		&id,
		&s.ExternalID,
		&s.Name,
		&s.Sport,
		&start,
		&s.DistanceMeters,
		&s.MovingTimeSeconds,
		&s.ElapsedTimeSeconds,
		&s.Source,
		&s.ElevationGain,
		&s.AverageSpeed,
		&s.MaxSpeed,
		&s.AverageHeartRate,
		&s.MaxHeartRate,
		&s.AverageCadence,
		&s.AverageWatts,
		&s.Kilojoules,
		&s.Description,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("activity id %q: %w", id, err)
	}
	s.ID = parsed
	s.StartDate = time.Unix(0, start).UTC()
	s.CreatedAt = time.Unix(0, created).UTC()
	s.UpdatedAt = time.Unix(0, updated).UTC()
	return domain.RestoreActivity(s)
}

func filterClause(filter domain.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Sport != "" {
		conds = append(conds, "sport_type = ?")
		args = append(args, string(filter.Sport))
	}
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, string(filter.Source))
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "start_date >= ?")
		args = append(args, filter.StartDate.UnixNano())
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "start_date <= ?")
		args = append(args, filter.EndDate.UnixNano())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func isExternalIDConflict(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return strings.Contains(sqliteErr.Error(), "activities.external_id")
}
