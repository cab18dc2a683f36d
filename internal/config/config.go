package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"training-insights/internal/analysis"
)

// Environment overrides
const (
	EnvConfigPath = "INSIGHTS_CONFIG"
	EnvDBPath     = "INSIGHTS_DB"
)

// Config represents the application configuration
type Config struct {
	Athlete AthleteConfig       `json:"athlete"`
	Zones   analysis.ZoneBounds `json:"zones"`
	Model   ModelConfig         `json:"model"`
	Display DisplayConfig       `json:"display"`
	Storage StorageConfig       `json:"storage"`
}

// AthleteConfig holds athlete-specific settings. Zero means unknown.
type AthleteConfig struct {
	RestingHR  float64 `json:"resting_hr"`
	MaxHR      float64 `json:"max_hr"`
	FTP        float64 `json:"ftp"`
	BodyMassKg float64 `json:"body_mass_kg"`
	Age        float64 `json:"age"`
	Sex        string  `json:"sex"`
}

// ModelConfig holds the tunable constants of the load and TRIMP models
type ModelConfig struct {
	TRIMP         analysis.TRIMPCoefficients `json:"trimp"`
	AcuteDays     int                        `json:"acute_days"`
	ChronicDays   int                        `json:"chronic_days"`
	LoadWeighting string                     `json:"load_weighting"`
	ChartPoints   int                        `json:"chart_points"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
	PaceUnit     string `json:"pace_unit"`
}

// StorageConfig locates the activity history database
type StorageConfig struct {
	DBPath string `json:"db_path"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	load := analysis.DefaultLoadModel()
	return Config{
		Zones: analysis.DefaultZoneBounds(),
		Model: ModelConfig{
			TRIMP:         analysis.DefaultTRIMPCoefficients(),
			AcuteDays:     load.AcuteDays,
			ChronicDays:   load.ChronicDays,
			LoadWeighting: load.Weighting,
			ChartPoints:   analysis.DefaultChartPoints,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
			PaceUnit:     "min/km",
		},
	}
}

// Load reads the configuration from $INSIGHTS_CONFIG or ~/.insights/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path and fills in defaults
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero-valued settings. Athlete fields stay zero: the
// engine reports metrics that need them as unavailable instead.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Zones == (analysis.ZoneBounds{}) {
		c.Zones = defaults.Zones
	}
	if c.Model.TRIMP == (analysis.TRIMPCoefficients{}) {
		c.Model.TRIMP = defaults.Model.TRIMP
	}
	if c.Model.AcuteDays == 0 {
		c.Model.AcuteDays = defaults.Model.AcuteDays
	}
	if c.Model.ChronicDays == 0 {
		c.Model.ChronicDays = defaults.Model.ChronicDays
	}
	if c.Model.LoadWeighting == "" {
		c.Model.LoadWeighting = defaults.Model.LoadWeighting
	}
	if c.Model.ChartPoints == 0 {
		c.Model.ChartPoints = defaults.Model.ChartPoints
	}
	if c.Display.DistanceUnit == "" {
		c.Display.DistanceUnit = defaults.Display.DistanceUnit
	}
	if c.Display.PaceUnit == "" {
		c.Display.PaceUnit = defaults.Display.PaceUnit
	}
	if env := os.Getenv(EnvDBPath); env != "" {
		c.Storage.DBPath = env
	}
}

// Save writes the configuration to $INSIGHTS_CONFIG or ~/.insights/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes the configuration to path
func SaveTo(path string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Athlete = AthleteConfig{
		RestingHR:  50,
		MaxHR:      185,
		FTP:        250,
		BodyMassKg: 70,
		Age:        35,
		Sex:        string(analysis.SexMale),
	}
	return SaveTo(path, &example)
}

// Validate checks ranges and cross-field constraints
func (c *Config) Validate() error {
	a := c.Athlete
	for field, v := range map[string]float64{
		"resting_hr":   a.RestingHR,
		"max_hr":       a.MaxHR,
		"ftp":          a.FTP,
		"body_mass_kg": a.BodyMassKg,
		"age":          a.Age,
	} {
		if v < 0 {
			return fmt.Errorf("athlete.%s must not be negative, got %v", field, v)
		}
	}
	if a.RestingHR > 0 && a.MaxHR > 0 && a.RestingHR >= a.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", a.RestingHR, a.MaxHR)
	}
	switch analysis.Sex(a.Sex) {
	case analysis.SexUnknown, analysis.SexMale, analysis.SexFemale:
	default:
		return fmt.Errorf("athlete.sex must be \"male\" or \"female\", got %q", a.Sex)
	}

	if err := c.Zones.Validate(); err != nil {
		return err
	}
	if err := c.LoadModel().Validate(); err != nil {
		return err
	}
	if c.Model.ChartPoints < 0 {
		return fmt.Errorf("model.chart_points must not be negative, got %d", c.Model.ChartPoints)
	}

	// Validate display units
	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	return nil
}

// LoadModel returns the configured acute/chronic windows
func (c *Config) LoadModel() analysis.LoadModel {
	return analysis.LoadModel{
		AcuteDays:   c.Model.AcuteDays,
		ChronicDays: c.Model.ChronicDays,
		Weighting:   c.Model.LoadWeighting,
	}
}

// Options converts the configuration to engine options
func (c *Config) Options() analysis.Options {
	return analysis.Options{
		Athlete: analysis.AthleteProfile{
			RestingHR:  c.Athlete.RestingHR,
			MaxHR:      c.Athlete.MaxHR,
			FTP:        c.Athlete.FTP,
			BodyMassKg: c.Athlete.BodyMassKg,
			Age:        c.Athlete.Age,
			Sex:        analysis.Sex(c.Athlete.Sex),
		},
		ZoneBounds:  c.Zones,
		TRIMP:       c.Model.TRIMP,
		Load:        c.LoadModel(),
		ChartPoints: c.Model.ChartPoints,
	}
}

// DBPath returns $INSIGHTS_DB, the configured database path or
// ~/.insights/insights.db
func (c *Config) DBPath() (string, error) {
	if env := os.Getenv(EnvDBPath); env != "" {
		return env, nil
	}
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "insights.db"), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".insights"), nil
}
