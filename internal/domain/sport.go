package domain

import (
	"fmt"
	"strings"
)

// Sport is the closed set of activity categories tracked by the service.
type Sport string

const (
	SportRunning  Sport = "running"
	SportCycling  Sport = "cycling"
	SportSwimming Sport = "swimming"
	SportWalking  Sport = "walking"
	SportHiking   Sport = "hiking"
	SportStrength Sport = "strength"
	SportYoga     Sport = "yoga"
	SportWorkout  Sport = "workout"
	SportOther    Sport = "other"
)

var allSports = []Sport{
	SportRunning,
	SportCycling,
	SportSwimming,
	SportWalking,
	SportHiking,
	SportStrength,
	SportYoga,
	SportWorkout,
	SportOther,
}

var stravaSports = map[string]Sport{
	"Run":            SportRunning,
	"Ride":           SportCycling,
	"Swim":           SportSwimming,
	"Walk":           SportWalking,
	"Hike":           SportHiking,
	"WeightTraining": SportStrength,
	"Yoga":           SportYoga,
	"Workout":        SportWorkout,
}

// AllSports lists every category in declaration order.
func AllSports() []Sport {
	out := make([]Sport, len(allSports))
	copy(out, allSports)
	return out
}

// SportFromStrava normalises a Strava sport_type label. Unknown labels map to SportOther.
func SportFromStrava(label string) Sport {
	if sport, ok := stravaSports[label]; ok {
		return sport
	}
	return SportOther
}

// ParseSport strictly parses a stored or user supplied category value.
func ParseSport(value string) (Sport, error) {
	candidate := Sport(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allSports {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown sport %q", ErrValidation, value)
}

// IsEndurance reports whether the category is a sustained-effort sport.
func (s Sport) IsEndurance() bool {
	switch s {
	case SportRunning, SportCycling, SportSwimming, SportHiking:
		return true
	default:
		return false
	}
}

// Icon returns the dashboard glyph for the category.
func (s Sport) Icon() string {
	switch s {
	case SportRunning:
		return "🏃‍♂️"
	case SportCycling:
		return "🚴‍♂️"
	case SportSwimming:
		return "🏊‍♂️"
	case SportWalking:
		return "🚶‍♂️"
	case SportHiking:
		return "🥾"
	case SportStrength:
		return "💪"
	case SportYoga:
		return "🧘‍♀️"
	case SportWorkout:
		return "🏋️‍♂️"
	default:
		return "🏃‍♂️"
	}
}

// Label returns the capitalised category name.
func (s Sport) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// DataSource identifies where an activity was imported from.
type DataSource string

const (
	SourceStrava DataSource = "strava"
	SourceGarmin DataSource = "garmin"
	SourceManual DataSource = "manual"
)

// DisplayName returns the human readable platform name.
func (d DataSource) DisplayName() string {
	switch d {
	case SourceStrava:
		return "Strava"
	case SourceGarmin:
		return "Garmin Connect"
	case SourceManual:
		return "Manual"
	default:
		return string(d)
	}
}
