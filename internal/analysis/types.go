package analysis

import "time"

// Sport types recognised by the estimators. Anything else is treated as generic.
const (
	SportRun  = "Run"
	SportRide = "Ride"
)

// ActivitySummary is a read-only record of one completed activity
type ActivitySummary struct {
	ID                  string        `json:"id"`
	Sport               string        `json:"sport"`
	StartTime           time.Time     `json:"start_time"`
	DurationSeconds     float64       `json:"duration_seconds"`
	DistanceMeters      float64       `json:"distance_meters"`
	ElevationGainMeters float64       `json:"elevation_gain_meters"`
	AverageHeartRate    *float64      `json:"average_heartrate,omitempty"`
	MaxHeartRate        *float64      `json:"max_heartrate,omitempty"`
	AveragePower        *float64      `json:"average_power,omitempty"`
	MaxPower            *float64      `json:"max_power,omitempty"`
	TSS                 *float64      `json:"tss,omitempty"`   // precomputed training stress score
	TRIMP               *float64      `json:"trimp,omitempty"` // precomputed training impulse
	HRRecovery          *float64      `json:"hr_recovery,omitempty"`
	BestEfforts         []PowerEffort `json:"best_efforts,omitempty"`
}

// IsRun reports whether the activity is a running activity
func (a ActivitySummary) IsRun() bool {
	return a.Sport == SportRun || a.Sport == "TrailRun" || a.Sport == "VirtualRun"
}

// AverageSpeed returns distance over duration in m/s, or 0
func (a ActivitySummary) AverageSpeed() float64 {
	if a.DurationSeconds <= 0 {
		return 0
	}
	return a.DistanceMeters / a.DurationSeconds
}

// PowerEffort is the best mean power held for a given duration
type PowerEffort struct {
	DurationSeconds int     `json:"duration_seconds"`
	Watts           float64 `json:"watts"`
}

// Sex selects the TRIMP coefficients
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// AthleteProfile holds athlete-level inputs. Zero means "not provided".
type AthleteProfile struct {
	RestingHR  float64 `json:"resting_hr"`
	MaxHR      float64 `json:"max_hr"`
	FTP        float64 `json:"ftp"`
	BodyMassKg float64 `json:"body_mass_kg"`
	Age        float64 `json:"age"`
	Sex        Sex     `json:"sex"`
}

// Options configures a single analysis
type Options struct {
	Athlete     AthleteProfile
	ZoneBounds  ZoneBounds
	TRIMP       TRIMPCoefficients
	Load        LoadModel
	ChartPoints int
}

// DefaultChartPoints is the default point budget for the chart view
const DefaultChartPoints = 200

// DefaultOptions returns options with literature defaults and no athlete data
func DefaultOptions() Options {
	return Options{
		ZoneBounds:  DefaultZoneBounds(),
		TRIMP:       DefaultTRIMPCoefficients(),
		Load:        DefaultLoadModel(),
		ChartPoints: DefaultChartPoints,
	}
}

// Input is everything the engine needs for one analysis.
// History may arrive in any order; Analyze sorts a copy by start time.
type Input struct {
	Activity ActivitySummary   `json:"activity"`
	Streams  RawStreams        `json:"streams"`
	History  []ActivitySummary `json:"history,omitempty"`
}

// Result is the structured output of Analyze
type Result struct {
	HeartRateZones     []HeartRateZone    `json:"heart_rate_zones"`
	MaxHR              *float64           `json:"max_hr,omitempty"`
	MaxHRSource        string             `json:"max_hr_source,omitempty"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
	Correlations       CorrelationSet     `json:"correlations"`
	TrainingLoad       TrainingLoadState  `json:"training_load"`
	PhysicalStatus     *PhysicalStatus    `json:"physical_status,omitempty"`
	Insights           []string           `json:"insights"`
	Warnings           []Warning          `json:"warnings,omitempty"`
	Chart              ChartSeries        `json:"chart"`
}

// Empty reports whether every metric in the result degraded to "no data"
func (r *Result) Empty() bool {
	m := r.PerformanceMetrics
	return len(r.HeartRateZones) == 0 &&
		m.AverageSpeed == nil && m.AverageHeartRate == nil && m.AverageCadence == nil &&
		m.TRIMP == nil && m.EfficiencyFactor == nil && m.AerobicDecoupling == nil &&
		m.PowerAnalysis == nil &&
		r.Correlations.PowerSpeed == nil && r.Correlations.HeartRatePower == nil && r.Correlations.GradeHeartRate == nil &&
		r.TrainingLoad.ActivityLoad == nil && r.TrainingLoad.ACWR == nil &&
		r.PhysicalStatus == nil
}

func floatPtr(f float64) *float64 {
	return &f
}
