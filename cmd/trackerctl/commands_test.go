package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/persistence/memory"
	"example.com/activitytracker/internal/source"
	"example.com/activitytracker/internal/synchronizer"
)

type stubFetcher struct {
	items []source.RawActivity
	err   error
}

func (s stubFetcher) FetchActivities(ctx context.Context, limit int) ([]source.RawActivity, error) {
	return s.items, s.err
}

func newSyncService(repo domain.ActivityRepository, fetcher source.Fetcher) *synchronizer.Service {
	return synchronizer.NewService(repo, map[domain.DataSource]source.Fetcher{domain.SourceStrava: fetcher}, zerolog.Nop())
}

func TestRunSyncImportsFixtures(t *testing.T) {
	repo := memory.NewRepository()
	fixtures := source.FixtureActivities(time.Now().UTC())
	svc := newSyncService(repo, stubFetcher{items: fixtures})

	var out bytes.Buffer
	require.NoError(t, runSync(context.Background(), svc, " Strava ", 2, &out))

	var got syncOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, syncOutput{Source: "strava", Status: "success", SyncedCount: 2, Errors: []string{}}, got)

	count, err := repo.Count(context.Background(), domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunSyncFailures(t *testing.T) {
	svc := newSyncService(memory.NewRepository(), stubFetcher{err: errors.New("boom")})

	var out bytes.Buffer
	require.EqualError(t, runSync(context.Background(), svc, "strava", 0, &out), "synchronization failed")
	assert.Contains(t, out.String(), `"status": "failed"`)

	err := runSync(context.Background(), svc, "garmin", 0, &out)
	require.ErrorIs(t, err, synchronizer.ErrUnsupportedSource)
	require.Error(t, runSync(context.Background(), svc, "strava", -1, &out))
}

func TestRunStats(t *testing.T) {
	repo := memory.NewRepository()
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
	for i, sport := range []domain.Sport{domain.SportRunning, domain.SportRunning, domain.SportCycling} {
		a, err := domain.NewActivity(domain.NewActivityInput{
			ExternalID:         string(rune('a' + i)),
			Name:               "session",
			Sport:              sport,
			StartDate:          now.AddDate(0, 0, -i-1),
			DistanceMeters:     10000,
			MovingTimeSeconds:  3600,
			ElapsedTimeSeconds: 3600,
			Source:             domain.SourceStrava,
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(context.Background(), a))
	}

	var out bytes.Buffer
	require.NoError(t, runStats(context.Background(), domain.NewService(repo), "week", "running", now, &out))

	var got statsOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "week", string(got.Period))
	assert.Equal(t, 2, got.Overview.TotalActivities)
	assert.Equal(t, 20.0, got.Overview.TotalDistanceKm)
	require.Len(t, got.SportBreakdown, 1)
	assert.Equal(t, domain.SportRunning, got.SportBreakdown[0].Sport)

	require.Error(t, runStats(context.Background(), domain.NewService(repo), "week", "curling", now, &out))
}
