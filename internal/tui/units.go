package tui

import (
	"fmt"
	"math"

	"training-insights/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

// FormatPace formats a pace given in seconds per kilometre in the user's
// preferred unit
func (u Units) FormatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 || math.IsNaN(secondsPerKm) || math.IsInf(secondsPerKm, 0) {
		return "-"
	}

	paceSeconds := secondsPerKm
	if u.cfg.PaceUnit == "min/mi" {
		paceSeconds = secondsPerKm * metersPerMile / metersPerKm
	}

	total := int(math.Round(paceSeconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatPaceWithUnit formats pace with the unit label
func (u Units) FormatPaceWithUnit(secondsPerKm float64) string {
	pace := u.FormatPace(secondsPerKm)
	if pace == "-" {
		return pace
	}
	return pace + "/" + u.paceDistanceLabel()
}

// FormatSpeed formats a speed in m/s as km/h or mph
func (u Units) FormatSpeed(mps float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mph", mps*3600/metersPerMile)
	}
	return fmt.Sprintf("%.1f km/h", mps*3600/metersPerKm)
}

func (u Units) paceDistanceLabel() string {
	if u.cfg.PaceUnit == "min/mi" {
		return "mi"
	}
	return "km"
}
