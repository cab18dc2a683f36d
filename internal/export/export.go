// Package export writes analysis results and chart series to files
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"training-insights/internal/analysis"
)

// chartRow is one downsampled sample. Missing values are NaN.
type chartRow struct {
	Index     int64   `parquet:"name=index, type=INT64"`
	TimeS     float64 `parquet:"name=time_s, type=DOUBLE"`
	HeartRate float64 `parquet:"name=heartrate_bpm, type=DOUBLE"`
	Power     float64 `parquet:"name=power_w, type=DOUBLE"`
	Distance  float64 `parquet:"name=distance_m, type=DOUBLE"`
	Altitude  float64 `parquet:"name=altitude_m, type=DOUBLE"`
	Velocity  float64 `parquet:"name=velocity_mps, type=DOUBLE"`
	Grade     float64 `parquet:"name=grade_pct, type=DOUBLE"`
	Cadence   float64 `parquet:"name=cadence, type=DOUBLE"`
}

var chartHeader = []string{
	"index", "time_s", "heartrate_bpm", "power_w", "distance_m",
	"altitude_m", "velocity_mps", "grade_pct", "cadence",
}

func (r chartRow) values() []float64 {
	return []float64{r.TimeS, r.HeartRate, r.Power, r.Distance, r.Altitude, r.Velocity, r.Grade, r.Cadence}
}

// Write picks the format from the file extension: .json writes the whole
// result, .parquet and .csv write the chart series.
func Write(path string, r *analysis.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return WriteResultJSON(path, r)
	case ".parquet":
		return WriteChartParquet(path, r.Chart)
	case ".csv":
		return WriteChartCSV(path, r.Chart)
	default:
		return fmt.Errorf("unsupported export format %q (expected json|parquet|csv)", filepath.Ext(path))
	}
}

// WriteResultJSON writes the result as indented JSON
func WriteResultJSON(path string, r *analysis.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := EncodeResult(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeResult writes the result as indented JSON. Missing chart samples
// are written as null.
func EncodeResult(w io.Writer, r *analysis.Result) error {
	doc := struct {
		*analysis.Result
		Chart chartDoc `json:"chart"`
	}{r, newChartDoc(r.Chart)}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// WriteChartParquet writes the chart series as a SNAPPY-compressed parquet file
func WriteChartParquet(path string, chart analysis.ChartSeries) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, new(chartRow), 4)
	if err != nil {
		_ = fw.Close()
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, row := range chartRows(chart) {
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			_ = fw.Close()
			return err
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// WriteChartCSV writes the chart series as CSV with empty cells for missing samples
func WriteChartCSV(path string, chart analysis.ChartSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(chartHeader); err != nil {
		f.Close()
		return err
	}
	for _, row := range chartRows(chart) {
		record := []string{strconv.FormatInt(row.Index, 10)}
		for _, v := range row.values() {
			record = append(record, formatFloat(v))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func chartRows(chart analysis.ChartSeries) []chartRow {
	rows := make([]chartRow, len(chart.Time))
	for i := range chart.Time {
		rows[i] = chartRow{
			TimeS:     chart.Time[i],
			HeartRate: at(chart.HeartRate, i),
			Power:     at(chart.Power, i),
			Distance:  at(chart.Distance, i),
			Altitude:  at(chart.Altitude, i),
			Velocity:  at(chart.Velocity, i),
			Grade:     at(chart.Grade, i),
			Cadence:   at(chart.Cadence, i),
		}
		if i < len(chart.Indices) {
			rows[i].Index = int64(chart.Indices[i])
		} else {
			rows[i].Index = int64(i)
		}
	}
	return rows
}

func at(values []float64, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	return values[i]
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// chartDoc mirrors analysis.ChartSeries with nullable samples
type chartDoc struct {
	Indices   []int      `json:"indices,omitempty"`
	Time      []*float64 `json:"time,omitempty"`
	HeartRate []*float64 `json:"heartrate,omitempty"`
	Power     []*float64 `json:"power,omitempty"`
	Distance  []*float64 `json:"distance,omitempty"`
	Altitude  []*float64 `json:"altitude,omitempty"`
	Velocity  []*float64 `json:"velocity,omitempty"`
	Grade     []*float64 `json:"grade,omitempty"`
	Cadence   []*float64 `json:"cadence,omitempty"`
}

func newChartDoc(c analysis.ChartSeries) chartDoc {
	return chartDoc{
		Indices:   c.Indices,
		Time:      nullable(c.Time),
		HeartRate: nullable(c.HeartRate),
		Power:     nullable(c.Power),
		Distance:  nullable(c.Distance),
		Altitude:  nullable(c.Altitude),
		Velocity:  nullable(c.Velocity),
		Grade:     nullable(c.Grade),
		Cadence:   nullable(c.Cadence),
	}
}

func nullable(values []float64) []*float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = &values[i]
	}
	return out
}
