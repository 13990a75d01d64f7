package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"example.com/activitytracker/internal/domain"
	"example.com/activitytracker/internal/stats"
	"example.com/activitytracker/internal/synchronizer"
)

type syncOutput struct {
	Source      string   `json:"source"`
	Status      string   `json:"status"`
	SyncedCount int      `json:"synced_count"`
	Errors      []string `json:"errors"`
}

func runSync(ctx context.Context, svc *synchronizer.Service, src string, limit int, out io.Writer) error {
	if limit < 0 {
		return errors.New("limit cannot be negative")
	}
	source := domain.DataSource(strings.ToLower(strings.TrimSpace(src)))
	result, err := svc.Synchronize(ctx, synchronizer.Command{Source: source, Limit: limit})
	if err != nil {
		return err
	}
	if err := printJSON(out, syncOutput{
		Source:      string(source),
		Status:      string(result.Status()),
		SyncedCount: result.SyncedCount,
		Errors:      result.Errors,
	}); err != nil {
		return err
	}
	if result.Status() == synchronizer.StatusFailed {
		return errors.New("synchronization failed")
	}
	return nil
}

type statsOutput struct {
	Period         stats.Period        `json:"period"`
	Start          time.Time           `json:"start"`
	End            time.Time           `json:"end"`
	Overview       stats.OverviewStats `json:"overview"`
	Trends         stats.TrendStats    `json:"trends"`
	SportBreakdown []stats.SportStats  `json:"sport_breakdown"`
}

func runStats(ctx context.Context, svc *domain.Service, periodValue, sportValue string, now time.Time, out io.Writer) error {
	var sport domain.Sport
	if sportValue != "" {
		parsed, err := domain.ParseSport(sportValue)
		if err != nil {
			return err
		}
		sport = parsed
	}

	period := stats.ParsePeriod(periodValue)
	start, end := period.Range(now)
	activities, err := svc.ActivitiesBetween(ctx, start, end, sport)
	if err != nil {
		return err
	}

	return printJSON(out, statsOutput{
		Period:         period,
		Start:          start,
		End:            end,
		Overview:       stats.Overview(activities),
		Trends:         stats.Trends(activities),
		SportBreakdown: stats.SportBreakdown(activities),
	})
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
