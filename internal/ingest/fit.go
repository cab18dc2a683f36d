package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tormoder/fit"

	"training-insights/internal/analysis"
)

// ErrNoSession is returned for activity files without a session message
var ErrNoSession = errors.New("activity file has no session message")

// LoadFIT decodes the FIT activity file at path
func LoadFIT(path string) (analysis.ActivitySummary, analysis.RawStreams, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.ActivitySummary{}, analysis.RawStreams{}, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return DecodeFIT(f)
}

// DecodeFIT decodes a FIT activity into a summary and per-record streams
func DecodeFIT(r io.Reader) (analysis.ActivitySummary, analysis.RawStreams, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return analysis.ActivitySummary{}, analysis.RawStreams{}, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return analysis.ActivitySummary{}, analysis.RawStreams{}, fmt.Errorf("activity FIT expected: %w", err)
	}
	return fromActivity(activity)
}

func fromActivity(activity *fit.ActivityFile) (analysis.ActivitySummary, analysis.RawStreams, error) {
	if len(activity.Sessions) == 0 {
		return analysis.ActivitySummary{}, analysis.RawStreams{}, ErrNoSession
	}
	session := activity.Sessions[0]
	streams := recordStreams(activity.Records)

	summary := analysis.ActivitySummary{
		ID:                  uuid.NewString(),
		Sport:               sportName(session.Sport),
		StartTime:           validTimeOrZero(session.StartTime),
		DurationSeconds:     safePositive(session.GetTotalTimerTimeScaled()),
		DistanceMeters:      safePositive(session.GetTotalDistanceScaled()),
		ElevationGainMeters: float64(validUint16(session.TotalAscent)),
		AverageHeartRate:    uint8Ptr(session.AvgHeartRate),
		MaxHeartRate:        uint8Ptr(session.MaxHeartRate),
		AveragePower:        uint16Ptr(session.AvgPower),
		MaxPower:            uint16Ptr(session.MaxPower),
	}
	if summary.StartTime.IsZero() && len(activity.Records) > 0 {
		summary.StartTime = validTimeOrZero(activity.Records[0].Timestamp)
	}
	if summary.DurationSeconds == 0 && streams.Len() > 0 {
		summary.DurationSeconds = streams.Time[streams.Len()-1]
	}
	if summary.DistanceMeters == 0 {
		summary.DistanceMeters = lastValid(streams.Distance)
	}
	return summary, streams, nil
}

// recordStreams flattens record messages onto a time axis relative to the
// first timestamped record. Invalid fields become NaN.
func recordStreams(records []*fit.RecordMsg) analysis.RawStreams {
	var s analysis.RawStreams
	var start float64
	started := false
	var hasHR, hasPower, hasDist, hasAlt, hasSpeed, hasGrade, hasCad bool

	for _, rec := range records {
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		sec := float64(ts.UnixNano()) / 1e9
		if !started {
			start, started = sec, true
		}
		if n := len(s.Time); n > 0 && sec-start < s.Time[n-1] {
			continue
		}

		hr, ok := extractHeartRate(rec)
		hasHR = hasHR || ok
		power, ok := extractPower(rec)
		hasPower = hasPower || ok
		dist := rec.GetDistanceScaled()
		hasDist = hasDist || finite(dist)
		alt := extractAltitude(rec)
		hasAlt = hasAlt || finite(alt)
		speed := extractSpeed(rec)
		hasSpeed = hasSpeed || finite(speed)
		grade := rec.GetGradeScaled()
		hasGrade = hasGrade || finite(grade)
		cad, ok := extractCadence(rec)
		hasCad = hasCad || ok

		s.Time = append(s.Time, sec-start)
		s.HeartRate = append(s.HeartRate, hr)
		s.Power = append(s.Power, power)
		s.Distance = append(s.Distance, dist)
		s.Altitude = append(s.Altitude, alt)
		s.Velocity = append(s.Velocity, speed)
		s.Grade = append(s.Grade, grade)
		s.Cadence = append(s.Cadence, cad)
	}

	// Streams the device never recorded are absent, not all-missing
	if !hasHR {
		s.HeartRate = nil
	}
	if !hasPower {
		s.Power = nil
	}
	if !hasDist {
		s.Distance = nil
	}
	if !hasAlt {
		s.Altitude = nil
	}
	if !hasSpeed {
		s.Velocity = nil
	}
	if !hasGrade {
		s.Grade = nil
	}
	if !hasCad {
		s.Cadence = nil
	}
	return s
}

func sportName(sport fit.Sport) string {
	switch sport {
	case fit.SportRunning:
		return analysis.SportRun
	case fit.SportCycling:
		return analysis.SportRide
	default:
		return sport.String()
	}
}

func extractHeartRate(rec *fit.RecordMsg) (float64, bool) {
	if rec.HeartRate == math.MaxUint8 {
		return math.NaN(), false
	}
	return float64(rec.HeartRate), true
}

func extractPower(rec *fit.RecordMsg) (float64, bool) {
	if rec.Power == math.MaxUint16 {
		return math.NaN(), false
	}
	return float64(rec.Power), true
}

func extractCadence(rec *fit.RecordMsg) (float64, bool) {
	if rec.Cadence == math.MaxUint8 {
		return math.NaN(), false
	}
	return float64(rec.Cadence), true
}

func extractSpeed(rec *fit.RecordMsg) float64 {
	speed := rec.GetEnhancedSpeedScaled()
	if finite(speed) && speed >= 0 {
		return speed
	}
	speed = rec.GetSpeedScaled()
	if finite(speed) && speed >= 0 {
		return speed
	}
	return math.NaN()
}

func extractAltitude(rec *fit.RecordMsg) float64 {
	alt := rec.GetEnhancedAltitudeScaled()
	if finite(alt) {
		return alt
	}
	return rec.GetAltitudeScaled()
}

func lastValid(values []float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if finite(values[i]) && values[i] > 0 {
			return values[i]
		}
	}
	return 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !finite(v) || v < 0 {
		return 0
	}
	return v
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func uint8Ptr(v uint8) *float64 {
	if v == math.MaxUint8 || v == 0 {
		return nil
	}
	f := float64(v)
	return &f
}

func uint16Ptr(v uint16) *float64 {
	if v == math.MaxUint16 || v == 0 {
		return nil
	}
	f := float64(v)
	return &f
}
