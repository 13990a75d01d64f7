package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Heart rate bounds accepted by HeartRate.
const (
	MinHeartRate = 30
	MaxHeartRate = 250
)

// Distance is a non-negative length stored in meters.
type Distance struct {
	meters float64
}

// DistanceFromMeters validates and wraps a distance in meters.
func DistanceFromMeters(meters float64) (Distance, error) {
	if meters < 0 {
		return Distance{}, fmt.Errorf("%w: distance cannot be negative (%v m)", ErrValidation, meters)
	}
	return Distance{meters: meters}, nil
}

// DistanceFromKilometers validates and wraps a distance in kilometers.
func DistanceFromKilometers(km float64) (Distance, error) {
	return DistanceFromMeters(km * 1000)
}

// Meters returns the distance in meters.
func (d Distance) Meters() float64 { return d.meters }

// Kilometers returns the distance in kilometers.
func (d Distance) Kilometers() float64 { return d.meters / 1000 }

// String renders kilometers with two decimals from 1 km upwards, whole meters below.
func (d Distance) String() string {
	if d.meters >= 1000 {
		return strconv.FormatFloat(d.Kilometers(), 'f', 2, 64) + " km"
	}
	return strconv.FormatFloat(d.meters, 'f', 0, 64) + " m"
}

// Duration is a non-negative whole number of seconds.
type Duration struct {
	seconds int
}

// DurationFromSeconds validates and wraps a duration.
func DurationFromSeconds(seconds int) (Duration, error) {
	if seconds < 0 {
		return Duration{}, fmt.Errorf("%w: duration cannot be negative (%d s)", ErrValidation, seconds)
	}
	return Duration{seconds: seconds}, nil
}

// Seconds returns the duration in seconds.
func (d Duration) Seconds() int { return d.seconds }

// Hours returns the duration in fractional hours.
func (d Duration) Hours() float64 { return float64(d.seconds) / 3600 }

// Formatted renders the duration as HH:MM:SS.
func (d Duration) Formatted() string {
	h := d.seconds / 3600
	m := (d.seconds % 3600) / 60
	s := d.seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (d Duration) String() string { return d.Formatted() }

// Speed is a non-negative velocity stored in meters per second.
type Speed struct {
	mps float64
}

// SpeedFromMetersPerSecond validates and wraps a speed.
func SpeedFromMetersPerSecond(mps float64) (Speed, error) {
	if mps < 0 {
		return Speed{}, fmt.Errorf("%w: speed cannot be negative (%v m/s)", ErrValidation, mps)
	}
	return Speed{mps: mps}, nil
}

// SpeedFromKmPerHour validates and wraps a speed given in km/h.
func SpeedFromKmPerHour(kmh float64) (Speed, error) {
	return SpeedFromMetersPerSecond(kmh / 3.6)
}

// MetersPerSecond returns the speed in m/s.
func (s Speed) MetersPerSecond() float64 { return s.mps }

// KmPerHour returns the speed in km/h.
func (s Speed) KmPerHour() float64 { return s.mps * 3.6 }

func (s Speed) String() string {
	return strconv.FormatFloat(s.KmPerHour(), 'f', 1, 64) + " km/h"
}

// HeartRate is a pulse in beats per minute within [MinHeartRate, MaxHeartRate].
type HeartRate struct {
	bpm int
}

// NewHeartRate validates and wraps a heart rate.
func NewHeartRate(bpm int) (HeartRate, error) {
	if bpm < MinHeartRate || bpm > MaxHeartRate {
		return HeartRate{}, fmt.Errorf("%w: heart rate must be between %d and %d bpm, got %d", ErrValidation, MinHeartRate, MaxHeartRate, bpm)
	}
	return HeartRate{bpm: bpm}, nil
}

// Bpm returns the beats per minute.
func (h HeartRate) Bpm() int { return h.bpm }

func (h HeartRate) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(h.bpm))
	b.WriteString(" bpm")
	return b.String()
}
