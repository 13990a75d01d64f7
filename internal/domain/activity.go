package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intensity buckets an activity by its average heart rate.
type Intensity string

const (
	IntensityUnknown  Intensity = "Unknown"
	IntensityEasy     Intensity = "Easy"
	IntensityModerate Intensity = "Moderate"
	IntensityHard     Intensity = "Hard"
	IntensityVeryHard Intensity = "Very Hard"
)

// Activity is a single recorded workout imported from a data source.
// Identity fields and core measures are fixed at creation; optional metrics
// and the description may be updated afterwards.
type Activity struct {
	id          uuid.UUID
	externalID  string
	name        string
	sport       Sport
	startDate   time.Time
	distance    Distance
	movingTime  Duration
	elapsedTime Duration
	source      DataSource

	elevationGain    *float64
	averageSpeed     *Speed
	maxSpeed         *Speed
	averageHeartRate *HeartRate
	maxHeartRate     *HeartRate
	averageCadence   *float64
	averageWatts     *float64
	kilojoules       *float64
	description      *string

	createdAt time.Time
	updatedAt time.Time
}

// NewActivityInput carries the mandatory attributes of a new activity.
type NewActivityInput struct {
	ExternalID         string
	Name               string
	Sport              Sport
	StartDate          time.Time
	DistanceMeters     float64
	MovingTimeSeconds  int
	ElapsedTimeSeconds int
	Source             DataSource
}

// Metrics holds the optional measurements attached to an activity.
// A nil field clears the stored value.
type Metrics struct {
	ElevationGain    *float64
	AverageSpeed     *Speed
	MaxSpeed         *Speed
	AverageHeartRate *HeartRate
	MaxHeartRate     *HeartRate
	AverageCadence   *float64
	AverageWatts     *float64
	Kilojoules       *float64
}

var nowFunc = func() time.Time { return time.Now().UTC() }

// NewActivity validates the input and returns a freshly identified activity.
func NewActivity(input NewActivityInput) (*Activity, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", ErrValidation)
	}
	if _, err := ParseSport(string(input.Sport)); err != nil {
		return nil, err
	}
	if input.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if input.Source == "" {
		return nil, fmt.Errorf("%w: source is required", ErrValidation)
	}
	distance, err := DistanceFromMeters(input.DistanceMeters)
	if err != nil {
		return nil, err
	}
	moving, err := DurationFromSeconds(input.MovingTimeSeconds)
	if err != nil {
		return nil, fmt.Errorf("moving time: %w", err)
	}
	elapsed, err := DurationFromSeconds(input.ElapsedTimeSeconds)
	if err != nil {
		return nil, fmt.Errorf("elapsed time: %w", err)
	}

	now := nowFunc()
	return &Activity{
		id:          uuid.New(),
		externalID:  externalID,
		name:        input.Name,
		sport:       input.Sport,
		startDate:   input.StartDate.UTC(),
		distance:    distance,
		movingTime:  moving,
		elapsedTime: elapsed,
		source:      input.Source,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// UpdateMetrics replaces the optional measurements and bumps UpdatedAt.
func (a *Activity) UpdateMetrics(m Metrics) {
	a.elevationGain = m.ElevationGain
	a.averageSpeed = m.AverageSpeed
	a.maxSpeed = m.MaxSpeed
	a.averageHeartRate = m.AverageHeartRate
	a.maxHeartRate = m.MaxHeartRate
	a.averageCadence = m.AverageCadence
	a.averageWatts = m.AverageWatts
	a.kilojoules = m.Kilojoules
	a.updatedAt = nowFunc()
}

// SetDescription stores free text and bumps UpdatedAt. An empty string clears it.
func (a *Activity) SetDescription(description string) {
	if description == "" {
		a.description = nil
	} else {
		a.description = &description
	}
	a.updatedAt = nowFunc()
}

func (a *Activity) ID() uuid.UUID                { return a.id }
func (a *Activity) ExternalID() string           { return a.externalID }
func (a *Activity) Name() string                 { return a.name }
func (a *Activity) Sport() Sport                 { return a.sport }
func (a *Activity) StartDate() time.Time         { return a.startDate }
func (a *Activity) Distance() Distance           { return a.distance }
func (a *Activity) MovingTime() Duration         { return a.movingTime }
func (a *Activity) ElapsedTime() Duration        { return a.elapsedTime }
func (a *Activity) Source() DataSource           { return a.source }
func (a *Activity) CreatedAt() time.Time         { return a.createdAt }
func (a *Activity) UpdatedAt() time.Time         { return a.updatedAt }
func (a *Activity) ElevationGain() *float64      { return a.elevationGain }
func (a *Activity) AverageSpeed() *Speed         { return a.averageSpeed }
func (a *Activity) MaxSpeed() *Speed             { return a.maxSpeed }
func (a *Activity) AverageHeartRate() *HeartRate { return a.averageHeartRate }
func (a *Activity) MaxHeartRate() *HeartRate     { return a.maxHeartRate }
func (a *Activity) AverageCadence() *float64     { return a.averageCadence }
func (a *Activity) AverageWatts() *float64       { return a.averageWatts }
func (a *Activity) Kilojoules() *float64         { return a.kilojoules }

// Description returns the free text or "" when unset.
func (a *Activity) Description() string {
	if a.description == nil {
		return ""
	}
	return *a.description
}

// Metrics returns the optional measurements currently held.
func (a *Activity) Metrics() Metrics {
	return Metrics{
		ElevationGain:    a.elevationGain,
		AverageSpeed:     a.averageSpeed,
		MaxSpeed:         a.maxSpeed,
		AverageHeartRate: a.averageHeartRate,
		MaxHeartRate:     a.maxHeartRate,
		AverageCadence:   a.averageCadence,
		AverageWatts:     a.averageWatts,
		Kilojoules:       a.kilojoules,
	}
}

// DistanceKm returns the distance in kilometers.
func (a *Activity) DistanceKm() float64 { return a.distance.Kilometers() }

// MovingTimeFormatted returns the moving time as HH:MM:SS.
func (a *Activity) MovingTimeFormatted() string { return a.movingTime.Formatted() }

// AverageSpeedKmh returns the average speed in km/h, or nil when unknown.
func (a *Activity) AverageSpeedKmh() *float64 {
	if a.averageSpeed == nil {
		return nil
	}
	v := a.averageSpeed.KmPerHour()
	return &v
}

// MaxSpeedKmh returns the max speed in km/h, or nil when unknown.
func (a *Activity) MaxSpeedKmh() *float64 {
	if a.maxSpeed == nil {
		return nil
	}
	v := a.maxSpeed.KmPerHour()
	return &v
}

func (a *Activity) IsEndurance() bool      { return a.sport.IsEndurance() }
func (a *Activity) HasHeartRateData() bool { return a.averageHeartRate != nil }
func (a *Activity) HasPowerData() bool     { return a.averageWatts != nil }
func (a *Activity) HasSpeedData() bool     { return a.averageSpeed != nil }

// HasElevationData reports whether a positive elevation gain was recorded.
func (a *Activity) HasElevationData() bool {
	return a.elevationGain != nil && *a.elevationGain > 0
}

// IntensityLevel classifies effort from the average heart rate.
func (a *Activity) IntensityLevel() Intensity {
	if a.averageHeartRate == nil {
		return IntensityUnknown
	}
	switch bpm := a.averageHeartRate.Bpm(); {
	case bpm < 120:
		return IntensityEasy
	case bpm < 140:
		return IntensityModerate
	case bpm < 160:
		return IntensityHard
	default:
		return IntensityVeryHard
	}
}

// Snapshot is the primitive, storage-friendly form of an Activity.
type Snapshot struct {
	ID                 uuid.UUID
	ExternalID         string
	Name               string
	Sport              string
	StartDate          time.Time
	DistanceMeters     float64
	MovingTimeSeconds  int
	ElapsedTimeSeconds int
	Source             string
	ElevationGain      *float64
	AverageSpeed       *float64
	MaxSpeed           *float64
	AverageHeartRate   *int
	MaxHeartRate       *int
	AverageCadence     *float64
	AverageWatts       *float64
	Kilojoules         *float64
	Description        *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Snapshot flattens the activity for persistence.
func (a *Activity) Snapshot() Snapshot {
	s := Snapshot{
		ID:                 a.id,
		ExternalID:         a.externalID,
		Name:               a.name,
		Sport:              string(a.sport),
		StartDate:          a.startDate,
		DistanceMeters:     a.distance.Meters(),
		MovingTimeSeconds:  a.movingTime.Seconds(),
		ElapsedTimeSeconds: a.elapsedTime.Seconds(),
		Source:             string(a.source),
		ElevationGain:      a.elevationGain,
		AverageCadence:     a.averageCadence,
		AverageWatts:       a.averageWatts,
		Kilojoules:         a.kilojoules,
		Description:        a.description,
		CreatedAt:          a.createdAt,
		UpdatedAt:          a.updatedAt,
	}
	if a.averageSpeed != nil {
		v := a.averageSpeed.MetersPerSecond()
		s.AverageSpeed = &v
	}
	if a.maxSpeed != nil {
		v := a.maxSpeed.MetersPerSecond()
		s.MaxSpeed = &v
	}
	if a.averageHeartRate != nil {
		v := a.averageHeartRate.Bpm()
		s.AverageHeartRate = &v
	}
	if a.maxHeartRate != nil {
		v := a.maxHeartRate.Bpm()
		s.MaxHeartRate = &v
	}
	return s
}

// RestoreActivity rebuilds an activity from storage, re-validating every measure.
func RestoreActivity(s Snapshot) (*Activity, error) {
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: activity id is required", ErrValidation)
	}
	sport, err := ParseSport(s.Sport)
	if err != nil {
		return nil, err
	}
	a, err := NewActivity(NewActivityInput{
		ExternalID:         s.ExternalID,
		Name:               s.Name,
		Sport:              sport,
		StartDate:          s.StartDate,
		DistanceMeters:     s.DistanceMeters,
		MovingTimeSeconds:  s.MovingTimeSeconds,
		ElapsedTimeSeconds: s.ElapsedTimeSeconds,
		Source:             DataSource(s.Source),
	})
	if err != nil {
		return nil, fmt.Errorf("restore activity %s: %w", s.ID, err)
	}

	var m Metrics
	m.ElevationGain = s.ElevationGain
	m.AverageCadence = s.AverageCadence
	m.AverageWatts = s.AverageWatts
	m.Kilojoules = s.Kilojoules
	if s.AverageSpeed != nil {
		v, err := SpeedFromMetersPerSecond(*s.AverageSpeed)
		if err != nil {
			return nil, fmt.Errorf("restore activity %s: %w", s.ID, err)
		}
		m.AverageSpeed = &v
	}
	if s.MaxSpeed != nil {
		v, err := SpeedFromMetersPerSecond(*s.MaxSpeed)
		if err != nil {
			return nil, fmt.Errorf("restore activity %s: %w", s.ID, err)
		}
		m.MaxSpeed = &v
	}
	if s.AverageHeartRate != nil {
		v, err := NewHeartRate(*s.AverageHeartRate)
		if err != nil {
			return nil, fmt.Errorf("restore activity %s: %w", s.ID, err)
		}
		m.AverageHeartRate = &v
	}
	if s.MaxHeartRate != nil {
		v, err := NewHeartRate(*s.MaxHeartRate)
		if err != nil {
			return nil, fmt.Errorf("restore activity %s: %w", s.ID, err)
		}
		m.MaxHeartRate = &v
	}

	a.id = s.ID
	a.UpdateMetrics(m)
	a.description = s.Description
	a.createdAt = s.CreatedAt.UTC()
	a.updatedAt = s.UpdatedAt.UTC()
	return a, nil
}
