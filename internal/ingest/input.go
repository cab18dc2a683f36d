// Package ingest loads activities from JSON documents and FIT files
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/google/uuid"

	"training-insights/internal/analysis"
)

// streamsDoc is the wire form of analysis.RawStreams. A null sample is missing.
type streamsDoc struct {
	Time      []float64  `json:"time"`
	HeartRate []*float64 `json:"heartrate,omitempty"`
	Power     []*float64 `json:"power,omitempty"`
	Distance  []*float64 `json:"distance,omitempty"`
	Altitude  []*float64 `json:"altitude,omitempty"`
	Velocity  []*float64 `json:"velocity_smooth,omitempty"`
	Grade     []*float64 `json:"grade_smooth,omitempty"`
	Cadence   []*float64 `json:"cadence,omitempty"`
}

// inputDoc is the JSON document accepted by ReadInput
type inputDoc struct {
	Activity analysis.ActivitySummary   `json:"activity"`
	Streams  streamsDoc                 `json:"streams"`
	History  []analysis.ActivitySummary `json:"history,omitempty"`
}

// LoadInput reads an analysis input document from path
func LoadInput(path string) (analysis.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.Input{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()
	return ReadInput(f)
}

// ReadInput decodes an analysis input document. Activities without an ID
// are assigned one so they can be stored.
func ReadInput(r io.Reader) (analysis.Input, error) {
	var doc inputDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return analysis.Input{}, fmt.Errorf("decoding input: %w", err)
	}

	in := analysis.Input{
		Activity: doc.Activity,
		Streams:  doc.Streams.raw(),
		History:  doc.History,
	}
	ensureID(&in.Activity)
	for i := range in.History {
		ensureID(&in.History[i])
	}
	return in, nil
}

func (d streamsDoc) raw() analysis.RawStreams {
	return analysis.RawStreams{
		Time:      d.Time,
		HeartRate: values(d.HeartRate),
		Power:     values(d.Power),
		Distance:  values(d.Distance),
		Altitude:  values(d.Altitude),
		Velocity:  values(d.Velocity),
		Grade:     values(d.Grade),
		Cadence:   values(d.Cadence),
	}
}

func values(in []*float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

func ensureID(a *analysis.ActivitySummary) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
}
