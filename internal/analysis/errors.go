package analysis

import (
	"errors"
	"fmt"
)

// ErrMalformedStream is matched by every *MalformedStreamError
var ErrMalformedStream = errors.New("malformed stream")

// ErrConfiguration is matched by every *ConfigurationError
var ErrConfiguration = errors.New("configuration error")

// MalformedStreamError reports a structural violation in the raw streams.
// It aborts the analysis.
type MalformedStreamError struct {
	Stream string
	Index  int // offending sample, -1 when the whole stream is at fault
	Reason string
}

func (e *MalformedStreamError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed stream %q at sample %d: %s", e.Stream, e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed stream %q: %s", e.Stream, e.Reason)
}

func (e *MalformedStreamError) Is(target error) bool {
	return target == ErrMalformedStream
}

// ConfigurationError reports missing or invalid configuration for a metric.
// The dependent metric degrades to nil; the analysis continues.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// WarningKind distinguishes why a metric is missing
type WarningKind string

const (
	WarnInsufficientData WarningKind = "insufficient_data"
	WarnConfiguration    WarningKind = "configuration"
)

// Warning records a metric that degraded to nil
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Metric string      `json:"metric"`
	Reason string      `json:"reason"`
}

type warnings []Warning

func (w *warnings) insufficient(metric, reason string) {
	*w = append(*w, Warning{Kind: WarnInsufficientData, Metric: metric, Reason: reason})
}

func (w *warnings) config(metric string, err error) {
	*w = append(*w, Warning{Kind: WarnConfiguration, Metric: metric, Reason: err.Error()})
}
