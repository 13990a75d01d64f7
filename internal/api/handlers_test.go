package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activitytracker/internal/auth"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/persistence/memory"
	"example.com/activitytracker/internal/source"
	"example.com/activitytracker/internal/synchronizer"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	items []source.RawActivity
	err   error
}

func (s *stubFetcher) FetchActivities(ctx context.Context, limit int) ([]source.RawActivity, error) {
	return s.items, s.err
}

func ptr[T any](v T) *T { return &v }

func rawRun(id string) source.RawActivity {
	return source.RawActivity{
		ID:          source.ExternalID(id),
		Name:        ptr("run " + id),
		SportType:   ptr("Run"),
		StartDate:   ptr("2024-06-01T08:00:00Z"),
		Distance:    ptr(5000.0),
		MovingTime:  ptr(1500),
		ElapsedTime: ptr(1600),
	}
}

type testEnv struct {
	router *mux.Router
	repo   *memory.Repository
}

func newTestEnv(t *testing.T, fetcher source.Fetcher, scopes ...string) testEnv {
	t.Helper()
	repo := memory.NewRepository()
	syncService := synchronizer.NewService(repo, map[domain.DataSource]source.Fetcher{domain.SourceStrava: fetcher}, zerolog.Nop())
	handler := NewHandler(domain.NewService(repo), syncService, zerolog.Nop(), func() time.Time { return fixedNow })

	granted := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		granted[s] = struct{}{}
	}
	claims := &auth.Claims{Subject: "athlete", Scopes: granted, ExpiresAt: fixedNow.Add(time.Hour)}

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	})
	handler.RegisterRoutes(router)
	return testEnv{router: router, repo: repo}
}

func (e testEnv) seed(t *testing.T, externalID string, sport domain.Sport, start time.Time, meters float64, metrics domain.Metrics) *domain.Activity {
	t.Helper()
	a, err := domain.NewActivity(domain.NewActivityInput{
		ExternalID:         externalID,
		Name:               "activity " + externalID,
		Sport:              sport,
		StartDate:          start,
		DistanceMeters:     meters,
		MovingTimeSeconds:  1800,
		ElapsedTimeSeconds: 2000,
		Source:             domain.SourceStrava,
	})
	require.NoError(t, err)
	a.UpdateMetrics(metrics)
	require.NoError(t, e.repo.Save(context.Background(), a))
	return a
}

func (e testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestListActivities(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	speed, err := domain.SpeedFromMetersPerSecond(2.5)
	require.NoError(t, err)
	hr, err := domain.NewHeartRate(150)
	require.NoError(t, err)

	env.seed(t, "1", domain.SportRunning, fixedNow.AddDate(0, 0, -3), 5000, domain.Metrics{AverageSpeed: &speed, AverageHeartRate: &hr})
	env.seed(t, "2", domain.SportCycling, fixedNow.AddDate(0, 0, -2), 20123, domain.Metrics{})
	env.seed(t, "3", domain.SportRunning, fixedNow.AddDate(0, 0, -1), 8000, domain.Metrics{})

	rr := env.do(t, http.MethodGet, "/v1/activities?limit=1&page=0", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[ListActivitiesResponse](t, rr)
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, Pagination{Page: 1, Limit: 10, Total: 3, Pages: 1}, resp.Pagination)
	assert.Empty(t, resp.FiltersApplied)
	assert.Equal(t, "3", resp.Data[0].ExternalID)
	assert.Equal(t, 20.12, resp.Data[1].DistanceKm)
	assert.Nil(t, resp.Data[1].AverageSpeedKmh)

	first := resp.Data[2]
	require.NotNil(t, first.AverageSpeedKmh)
	assert.Equal(t, 9.0, *first.AverageSpeedKmh)
	require.NotNil(t, first.AverageHeartrate)
	assert.Equal(t, 150, *first.AverageHeartrate)
	assert.Equal(t, "Hard", first.IntensityLevel)
	assert.True(t, first.IsEndurance)
	assert.Equal(t, 1800, first.MovingTimeSeconds)
}

func TestListActivitiesFilters(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	env.seed(t, "1", domain.SportRunning, time.Date(2024, time.June, 10, 7, 0, 0, 0, time.UTC), 5000, domain.Metrics{})
	env.seed(t, "2", domain.SportRunning, time.Date(2024, time.June, 12, 18, 0, 0, 0, time.UTC), 5000, domain.Metrics{})
	env.seed(t, "3", domain.SportCycling, time.Date(2024, time.June, 12, 7, 0, 0, 0, time.UTC), 5000, domain.Metrics{})

	rr := env.do(t, http.MethodGet, "/v1/activities?sport=Running&start_date=2024-06-11&end_date=2024-06-12", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[ListActivitiesResponse](t, rr)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "2", resp.Data[0].ExternalID)
	assert.Equal(t, map[string]string{"sport": "running", "start_date": "2024-06-11", "end_date": "2024-06-12"}, resp.FiltersApplied)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/activities?sport=curling", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/activities?start_date=12/06/2024", "").Code)
}

func TestGetActivity(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	maxHR, err := domain.NewHeartRate(181)
	require.NoError(t, err)
	cadence := 86.0
	stored := env.seed(t, "42", domain.SportRunning, fixedNow.AddDate(0, 0, -1), 10000, domain.Metrics{MaxHeartRate: &maxHR, AverageCadence: &cadence})

	rr := env.do(t, http.MethodGet, "/v1/activities/"+stored.ID().String(), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[ActivityResponse](t, rr)
	assert.Equal(t, stored.ID().String(), resp.Data.ID)
	assert.Equal(t, 2000, resp.Data.ElapsedTimeSeconds)
	require.NotNil(t, resp.Data.MaxHeartrate)
	assert.Equal(t, 181, *resp.Data.MaxHeartrate)
	require.NotNil(t, resp.Data.AverageCadence)
	assert.Equal(t, 86.0, *resp.Data.AverageCadence)
	assert.Nil(t, resp.Data.AverageHeartrate)
	assert.Empty(t, resp.Data.IntensityLevel)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/activities/not-a-uuid", "").Code)
	missing := env.do(t, http.MethodGet, "/v1/activities/8d3c7b0e-5a43-4f55-9a55-3c3f7d0c1e11", "")
	assert.Equal(t, http.StatusNotFound, missing.Code)
	assert.Equal(t, "not_found", decode[map[string]string](t, missing)["type"])
}

func TestListSports(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	env.seed(t, "1", domain.SportYoga, fixedNow, 0, domain.Metrics{})
	env.seed(t, "2", domain.SportCycling, fixedNow, 1000, domain.Metrics{})
	env.seed(t, "3", domain.SportCycling, fixedNow, 1000, domain.Metrics{})

	rr := env.do(t, http.MethodGet, "/v1/activities/sports", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[SportsResponse](t, rr)
	assert.Equal(t, 2, resp.TotalSports)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, SportView{Value: "cycling", Label: "Cycling", Count: 2, Icon: domain.SportCycling.Icon(), IsEndurance: true}, resp.Data[0])
	assert.Equal(t, "yoga", resp.Data[1].Value)
	assert.False(t, resp.Data[1].IsEndurance)
}

func TestSynchronize(t *testing.T) {
	broken := rawRun("2")
	broken.Name = nil

	cases := []struct {
		name        string
		fetcher     *stubFetcher
		body        string
		wantStatus  int
		wantSynced  int
		wantMessage string
	}{
		{
			name:        "success",
			fetcher:     &stubFetcher{items: []source.RawActivity{rawRun("1"), rawRun("2")}},
			wantStatus:  http.StatusOK,
			wantSynced:  2,
			wantMessage: "2 activities synchronized",
		},
		{
			name:        "partial",
			fetcher:     &stubFetcher{items: []source.RawActivity{rawRun("1"), broken}},
			body:        `{"source":"strava"}`,
			wantStatus:  http.StatusPartialContent,
			wantSynced:  1,
			wantMessage: "1 activities synchronized, 1 errors",
		},
		{
			name:        "failed",
			fetcher:     &stubFetcher{err: errors.New("upstream down")},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Synchronization failed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.fetcher, auth.ScopeActivitiesSync)
			rr := env.do(t, http.MethodPost, "/v1/activities/sync", tc.body)
			require.Equal(t, tc.wantStatus, rr.Code, rr.Body.String())

			resp := decode[SyncResponse](t, rr)
			assert.Equal(t, tc.wantSynced, resp.SyncedCount)
			assert.Equal(t, tc.wantMessage, resp.Message)
			assert.Equal(t, "strava", resp.Source)
			assert.Equal(t, tc.wantStatus == http.StatusOK, resp.Success)
			assert.Equal(t, tc.wantStatus == http.StatusPartialContent, resp.HasPartialSuccess)
		})
	}
}

func TestSynchronizeRejects(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesSync)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/v1/activities/sync", `{"source":"garmin"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/v1/activities/sync", `{"limit":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/v1/activities/sync", `{`).Code)

	readOnly := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	rr := readOnly.do(t, http.MethodPost, "/v1/activities/sync", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestStatsOverview(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	env.seed(t, "1", domain.SportRunning, time.Date(2024, time.June, 10, 7, 0, 0, 0, time.UTC), 5000, domain.Metrics{})
	env.seed(t, "2", domain.SportCycling, time.Date(2024, time.June, 12, 7, 0, 0, 0, time.UTC), 20000, domain.Metrics{})
	env.seed(t, "3", domain.SportRunning, time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC), 9000, domain.Metrics{})

	rr := env.do(t, http.MethodGet, "/v1/stats/overview?period=week", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[StatsOverviewResponse](t, rr)
	assert.Equal(t, "week", string(resp.Data.Period))
	assert.Nil(t, resp.Data.SportFilter)
	assert.Equal(t, DateRange{Start: "2024-06-08", End: "2024-06-15"}, resp.Data.DateRange)
	assert.Equal(t, 2, resp.Data.Overview.TotalActivities)
	assert.Equal(t, 25.0, resp.Data.Overview.TotalDistanceKm)
	require.Len(t, resp.Data.SportBreakdown, 2)

	rr = env.do(t, http.MethodGet, "/v1/stats/overview?period=month&sport=running", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp = decode[StatsOverviewResponse](t, rr)
	require.NotNil(t, resp.Data.SportFilter)
	assert.Equal(t, "running", *resp.Data.SportFilter)
	assert.Equal(t, 1, resp.Data.Overview.TotalActivities)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/stats/overview?sport=curling", "").Code)
}

func TestChartData(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{}, auth.ScopeActivitiesRead)
	env.seed(t, "1", domain.SportRunning, time.Date(2024, time.June, 10, 7, 0, 0, 0, time.UTC), 5000, domain.Metrics{})
	env.seed(t, "2", domain.SportCycling, time.Date(2024, time.June, 12, 7, 0, 0, 0, time.UTC), 20000, domain.Metrics{})

	rr := env.do(t, http.MethodGet, "/v1/stats/chart-data?period=week&metric=count", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[ChartResponse](t, rr)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "2024-06-10", resp.Data[0].Date)
	assert.Equal(t, 20.0, resp.Data[1].Distance)
	assert.Equal(t, ChartMetadata{Period: "week", Metric: "count", TotalPoints: 2}, resp.Metadata)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/v1/stats/chart-data?metric=calories", "").Code)
}

func TestHealthzIsPublic(t *testing.T) {
	env := newTestEnv(t, &stubFetcher{})
	rr := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
