// Package app assembles the components shared by the tracker binaries.
package app

import (
	"github.com/rs/zerolog"

	"example.com/activitytracker/internal/config"
	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/source"
)

// Sources builds the fetchers available to the synchronizer. Without an
// access token Strava is served from fixtures and no request is made.
// Otherwise the client is wrapped with the fixture fallback when enabled.
func Sources(cfg config.Config, logger zerolog.Logger) map[domain.DataSource]source.Fetcher {
	if cfg.StravaAccessToken == "" {
		logger.Info().Str("source", string(domain.SourceStrava)).Msg("no access token configured, serving fixture activities")
		return map[domain.DataSource]source.Fetcher{domain.SourceStrava: source.NewFixtureSource()}
	}

	var strava source.Fetcher = source.NewStravaClient(source.StravaConfig{
		BaseURL:      cfg.StravaBaseURL,
		TokenURL:     cfg.StravaTokenURL,
		ClientID:     cfg.StravaClientID,
		ClientSecret: cfg.StravaClientSecret,
		AccessToken:  cfg.StravaAccessToken,
		RefreshToken: cfg.StravaRefreshToken,
		Timeout:      cfg.HTTPTimeout,
		PerPage:      cfg.StravaPerPage,
	}, logger)
	if cfg.FixtureFallback {
		strava = source.NewFallbackSource(strava, logger)
	}
	return map[domain.DataSource]source.Fetcher{domain.SourceStrava: strava}
}
