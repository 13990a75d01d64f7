package source

import (
	"context"

	"github.com/rs/zerolog"
)

// FallbackSource answers with fixture records whenever the primary fetcher
// fails. It keeps local development usable without platform access.
type FallbackSource struct {
	primary  Fetcher
	fixtures Fetcher
	logger   zerolog.Logger
}

// NewFallbackSource wraps primary with the built-in fixtures.
func NewFallbackSource(primary Fetcher, logger zerolog.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, fixtures: NewFixtureSource(), logger: logger}
}

// FetchActivities implements Fetcher. Context cancellation is not masked.
func (f *FallbackSource) FetchActivities(ctx context.Context, limit int) ([]RawActivity, error) {
	activities, err := f.primary.FetchActivities(ctx, limit)
	if err == nil {
		return activities, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	f.logger.Warn().Err(err).Msg("activity fetch failed, serving fixture data")
	fallbackCounter.Inc()
	return f.fixtures.FetchActivities(ctx, limit)
}
