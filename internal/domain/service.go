// Package domain defines the activity model and the read-side business logic
// of the activity tracker.
package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation marks a value that violates a domain invariant.
	ErrValidation = errors.New("validation failed")
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrDuplicateExternalID indicates another activity already carries the external id.
	ErrDuplicateExternalID = errors.New("activity already exists for external id")
)

// Filter narrows list and count queries. Zero values mean "no constraint".
type Filter struct {
	Sport     Sport
	StartDate time.Time
	EndDate   time.Time
	Source    DataSource
}

// Matches reports whether the activity satisfies every set constraint.
// EndDate is inclusive.
func (f Filter) Matches(a *Activity) bool {
	if f.Sport != "" && a.Sport() != f.Sport {
		return false
	}
	if f.Source != "" && a.Source() != f.Source {
		return false
	}
	if !f.StartDate.IsZero() && a.StartDate().Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && a.StartDate().After(f.EndDate) {
		return false
	}
	return true
}

// ActivityRepository captures persistence operations.
type ActivityRepository interface {
	ExistsByExternalID(ctx context.Context, externalID string) (bool, error)
	// Save inserts or updates the activity. Inserting a second activity with an
	// existing external id fails with ErrDuplicateExternalID.
	Save(ctx context.Context, activity *Activity) error
	// Get returns nil, nil when no activity has the id.
	Get(ctx context.Context, id uuid.UUID) (*Activity, error)
	// List returns activities ordered by start date, newest first.
	List(ctx context.Context, filter Filter, offset, limit int) ([]*Activity, error)
	FindByDateRange(ctx context.Context, start, end time.Time) ([]*Activity, error)
	Count(ctx context.Context, filter Filter) (int, error)
	CountBySport(ctx context.Context) (map[Sport]int, error)
}

// Service serves read workflows over stored activities.
type Service struct {
	repo ActivityRepository
}

// NewService constructs a Service.
func NewService(repo ActivityRepository) *Service {
	return &Service{repo: repo}
}

// Page is one slice of a filtered listing.
type Page struct {
	Activities []*Activity
	Page       int
	Limit      int
	Total      int
}

// Pages returns the number of pages needed to show Total items.
func (p Page) Pages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Page) HasNext() bool     { return p.Page < p.Pages() }
func (p Page) HasPrevious() bool { return p.Page > 1 }

// GetActivity fetches by ID.
func (s *Service) GetActivity(ctx context.Context, id uuid.UUID) (*Activity, error) {
	activity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}
	return activity, nil
}

// ListActivities returns the requested 1-based page of activities matching filter.
func (s *Service) ListActivities(ctx context.Context, filter Filter, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return Page{}, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}
	items, err := s.repo.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return Page{}, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	return Page{Activities: items, Page: page, Limit: limit, Total: total}, nil
}

// ActivitiesBetween returns activities started within [start, end], newest
// first, optionally restricted to one sport.
func (s *Service) ActivitiesBetween(ctx context.Context, start, end time.Time, sport Sport) ([]*Activity, error) {
	items, err := s.repo.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if sport == "" {
		return items, nil
	}
	filtered := make([]*Activity, 0, len(items))
	for _, a := range items {
		if a.Sport() == sport {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

// SportCount pairs a sport with the number of stored activities.
type SportCount struct {
	Sport Sport
	Count int
}

// PracticedSports lists sports with at least one activity, most practised first.
func (s *Service) PracticedSports(ctx context.Context) ([]SportCount, error) {
	counts, err := s.repo.CountBySport(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SportCount, 0, len(counts))
	for _, sport := range AllSports() {
		if n := counts[sport]; n > 0 {
			out = append(out, SportCount{Sport: sport, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}
