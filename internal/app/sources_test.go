package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/source"
)

func TestSourcesFallsBackToFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.Config{StravaBaseURL: srv.URL, StravaTokenURL: srv.URL + "/oauth/token", StravaAccessToken: "token", StravaPerPage: 50, FixtureFallback: true}
	sources := Sources(cfg, zerolog.Nop())
	require.Contains(t, sources, domain.SourceStrava)
	assert.IsType(t, &source.FallbackSource{}, sources[domain.SourceStrava])

	items, err := sources[domain.SourceStrava].FetchActivities(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSourcesWithoutFallback(t *testing.T) {
	cfg := config.Config{StravaAccessToken: "token", StravaPerPage: 50}
	sources := Sources(cfg, zerolog.Nop())
	assert.IsType(t, &source.StravaClient{}, sources[domain.SourceStrava])
}

func TestSourcesWithoutTokenServeFixtures(t *testing.T) {
	for _, fallback := range []bool{false, true} {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		cfg := config.Config{StravaBaseURL: srv.URL, StravaTokenURL: srv.URL + "/oauth/token", StravaPerPage: 50, FixtureFallback: fallback}
		sources := Sources(cfg, zerolog.Nop())
		assert.IsType(t, &source.FixtureSource{}, sources[domain.SourceStrava])

		items, err := sources[domain.SourceStrava].FetchActivities(context.Background(), 0)
		require.NoError(t, err, "fallback=%v", fallback)
		assert.Len(t, items, 3)
		assert.Zero(t, hits.Load(), "fallback=%v", fallback)
		srv.Close()
	}
}
