// Package synchronizer imports activities from external sources into storage.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/observability"
	"example.com/activitytracker/internal/source"
)

// ErrUnsupportedSource is returned when no fetcher is registered for the requested source.
var ErrUnsupportedSource = errors.New("unsupported source")

// Service runs synchronization commands.
type Service struct {
	repo    domain.ActivityRepository
	sources map[domain.DataSource]source.Fetcher
	logger  zerolog.Logger
}

// NewService constructs a Service dispatching to the given fetchers.
func NewService(repo domain.ActivityRepository, sources map[domain.DataSource]source.Fetcher, logger zerolog.Logger) *Service {
	registry := make(map[domain.DataSource]source.Fetcher, len(sources))
	for k, v := range sources {
		registry[k] = v
	}
	return &Service{repo: repo, sources: registry, logger: logger.With().Str("component", "synchronizer").Logger()}
}

// Synchronize fetches records from cmd.Source and imports the ones not yet
// stored. Per-record and fetch failures are reported in the Result; only an
// unknown source is returned as an error.
func (s *Service) Synchronize(ctx context.Context, cmd Command) (Result, error) {
	fetcher, ok := s.sources[cmd.Source]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, cmd.Source)
	}

	started := time.Now()
	result := Result{Errors: []string{}}
	defer func() {
		runDuration.WithLabelValues(string(cmd.Source), string(result.Status())).Observe(time.Since(started).Seconds())
	}()

	raws, err := fetcher.FetchActivities(ctx, cmd.Limit)
	if err != nil {
		s.logger.Error().Err(err).Str("source", string(cmd.Source)).Msg("fetch failed")
		result.Errors = append(result.Errors, "sync failed: "+err.Error())
		return result, nil
	}

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, "sync failed: "+err.Error())
			break
		}

		imported, err := s.importRecord(ctx, raw, cmd.Source)
		switch {
		case err != nil:
			recordsCounter.WithLabelValues(string(cmd.Source), "failed").Inc()
			result.Errors = append(result.Errors, fmt.Sprintf("activity %s: %v", displayID(raw.ID), err))
			s.logger.Warn().Err(err).Str("external_id", string(raw.ID)).Msg("activity import failed")
		case imported:
			recordsCounter.WithLabelValues(string(cmd.Source), "imported").Inc()
			result.SyncedCount++
		default:
			recordsCounter.WithLabelValues(string(cmd.Source), "skipped").Inc()
		}

		if cmd.Limit > 0 && result.SyncedCount >= cmd.Limit {
			break
		}
	}

	if result.SyncedCount > 0 {
		observability.RecordSyncCompleted(string(cmd.Source), time.Now())
	}
	s.logger.Info().
		Str("source", string(cmd.Source)).
		Int("fetched", len(raws)).
		Int("synced", result.SyncedCount).
		Int("errors", len(result.Errors)).
		Msg("synchronization finished")
	return result, nil
}

// importRecord returns false without error when the record is already stored.
func (s *Service) importRecord(ctx context.Context, raw source.RawActivity, src domain.DataSource) (bool, error) {
	if raw.ID == "" {
		return false, errors.New("missing field \"id\"")
	}
	exists, err := s.repo.ExistsByExternalID(ctx, string(raw.ID))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	activity, err := buildActivity(raw, src)
	if err != nil {
		return false, err
	}
	if err := s.repo.Save(ctx, activity); err != nil {
		if errors.Is(err, domain.ErrDuplicateExternalID) {
			// imported concurrently by another run
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func buildActivity(raw source.RawActivity, src domain.DataSource) (*domain.Activity, error) {
	switch {
	case raw.Name == nil:
		return nil, missing("name")
	case raw.SportType == nil:
		return nil, missing("sport_type")
	case raw.StartDate == nil:
		return nil, missing("start_date")
	case raw.Distance == nil:
		return nil, missing("distance")
	case raw.MovingTime == nil:
		return nil, missing("moving_time")
	case raw.ElapsedTime == nil:
		return nil, missing("elapsed_time")
	}

	start, err := time.Parse(time.RFC3339, *raw.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start_date %q", domain.ErrValidation, *raw.StartDate)
	}

	activity, err := domain.NewActivity(domain.NewActivityInput{
		ExternalID:         string(raw.ID),
		Name:               *raw.Name,
		Sport:              domain.SportFromStrava(*raw.SportType),
		StartDate:          start,
		DistanceMeters:     *raw.Distance,
		MovingTimeSeconds:  *raw.MovingTime,
		ElapsedTimeSeconds: *raw.ElapsedTime,
		Source:             src,
	})
	if err != nil {
		return nil, err
	}

	metrics, err := buildMetrics(raw)
	if err != nil {
		return nil, err
	}
	activity.UpdateMetrics(metrics)
	if raw.Description != nil {
		activity.SetDescription(*raw.Description)
	}
	return activity, nil
}

func buildMetrics(raw source.RawActivity) (domain.Metrics, error) {
	m := domain.Metrics{
		AverageCadence: raw.AverageCadence,
		AverageWatts:   raw.AverageWatts,
		Kilojoules:     raw.Kilojoules,
	}
	if raw.TotalElevationGain != nil {
		d, err := domain.DistanceFromMeters(*raw.TotalElevationGain)
		if err != nil {
			return m, fmt.Errorf("elevation gain: %w", err)
		}
		v := d.Meters()
		m.ElevationGain = &v
	}
	if raw.AverageSpeed != nil {
		v, err := domain.SpeedFromMetersPerSecond(*raw.AverageSpeed)
		if err != nil {
			return m, fmt.Errorf("average speed: %w", err)
		}
		m.AverageSpeed = &v
	}
	if raw.MaxSpeed != nil {
		v, err := domain.SpeedFromMetersPerSecond(*raw.MaxSpeed)
		if err != nil {
			return m, fmt.Errorf("max speed: %w", err)
		}
		m.MaxSpeed = &v
	}
	if raw.AverageHeartrate != nil {
		v, err := domain.NewHeartRate(int(math.Round(*raw.AverageHeartrate)))
		if err != nil {
			return m, fmt.Errorf("average heart rate: %w", err)
		}
		m.AverageHeartRate = &v
	}
	if raw.MaxHeartrate != nil {
		v, err := domain.NewHeartRate(int(math.Round(*raw.MaxHeartrate)))
		if err != nil {
			return m, fmt.Errorf("max heart rate: %w", err)
		}
		m.MaxHeartRate = &v
	}
	return m, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", domain.ErrValidation, field)
}

func displayID(id source.ExternalID) string {
	if id == "" {
		return "<unknown>"
	}
	return string(id)
}
