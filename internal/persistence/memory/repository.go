// Package memory keeps activities in process memory for local development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/activitytracker/internal/domain"
)

// Repository stores activity snapshots in memory.
type Repository struct {
	mu         sync.RWMutex
	activities map[uuid.UUID]domain.Snapshot
	byExternal map[string]uuid.UUID
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		activities: make(map[uuid.UUID]domain.Snapshot),
		byExternal: make(map[string]uuid.UUID),
	}
}

// ExistsByExternalID implements domain.ActivityRepository.
func (r *Repository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byExternal[externalID]
	return ok, nil
}

// Save implements domain.ActivityRepository.
func (r *Repository) Save(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := cloneSnapshot(activity.Snapshot())
	if owner, ok := r.byExternal[snap.ExternalID]; ok && owner != snap.ID {
		return domain.ErrDuplicateExternalID
	}
	r.activities[snap.ID] = snap
	r.byExternal[snap.ExternalID] = snap.ID
	return nil
}

// Get returns nil, nil when the id is unknown.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	r.mu.RLock()
	snap, ok := r.activities[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return domain.RestoreActivity(cloneSnapshot(snap))
}

// List returns matching activities newest first. A non-positive limit returns everything after offset.
func (r *Repository) List(ctx context.Context, filter domain.Filter, offset, limit int) ([]*domain.Activity, error) {
	matched, err := r.matching(filter)
	if err != nil {
		return nil, err
	}
	if offset >= len(matched) {
		return []*domain.Activity{}, nil
	}
	if offset > 0 {
		matched = matched[offset:]
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// FindByDateRange returns activities started within [start, end], newest first.
func (r *Repository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Activity, error) {
	return r.matching(domain.Filter{StartDate: start, EndDate: end})
}

// Count implements domain.ActivityRepository.
func (r *Repository) Count(ctx context.Context, filter domain.Filter) (int, error) {
	matched, err := r.matching(filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// CountBySport implements domain.ActivityRepository.
func (r *Repository) CountBySport(ctx context.Context) (map[domain.Sport]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domain.Sport]int)
	for _, snap := range r.activities {
		counts[domain.Sport(snap.Sport)]++
	}
	return counts, nil
}

func (r *Repository) matching(filter domain.Filter) ([]*domain.Activity, error) {
	r.mu.RLock()
	snaps := make([]domain.Snapshot, 0, len(r.activities))
	for _, snap := range r.activities {
		snaps = append(snaps, cloneSnapshot(snap))
	}
	r.mu.RUnlock()

	out := make([]*domain.Activity, 0, len(snaps))
	for _, snap := range snaps {
		activity, err := domain.RestoreActivity(snap)
		if err != nil {
			return nil, err
		}
		if filter.Matches(activity) {
			out = append(out, activity)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate().Equal(out[j].StartDate()) {
			return out[i].ExternalID() > out[j].ExternalID()
		}
		return out[i].StartDate().After(out[j].StartDate())
	})
	return out, nil
}

// cloneSnapshot detaches the optional metrics from the activity they came from.
func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	s.ElevationGain = clone(s.ElevationGain)
	s.AverageSpeed = clone(s.AverageSpeed)
	s.MaxSpeed = clone(s.MaxSpeed)
	s.AverageHeartRate = clone(s.AverageHeartRate)
	s.MaxHeartRate = clone(s.MaxHeartRate)
	s.AverageCadence = clone(s.AverageCadence)
	s.AverageWatts = clone(s.AverageWatts)
	s.Kilojoules = clone(s.Kilojoules)
	s.Description = clone(s.Description)
	return s
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
