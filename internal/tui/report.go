package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"training-insights/internal/analysis"
)

const (
	chartPoints  = 60
	zoneBarWidth = 30
)

// RenderReport renders an analysis result as a static terminal report
func RenderReport(r *analysis.Result, a analysis.ActivitySummary, u Units) string {
	if r == nil {
		return "No data"
	}

	sections := []string{renderHeader(a, u)}
	sections = append(sections, renderSummary(r.PerformanceMetrics, u))

	if pa := r.PerformanceMetrics.PowerAnalysis; pa != nil {
		sections = append(sections, renderPower(pa))
	}

	if len(r.HeartRateZones) > 0 {
		sections = append(sections, renderZones(r.HeartRateZones, r.MaxHR, r.MaxHRSource))
	}

	if hr := compact(r.Chart.HeartRate); len(hr) > 5 {
		sections = append(sections, renderChart("Heart Rate Over Time (bpm)", hr))
	}
	if pw := compact(r.Chart.Power); len(pw) > 5 {
		sections = append(sections, renderChart("Power Over Time (W)", pw))
	}

	sections = append(sections, renderTrainingLoad(r.TrainingLoad))

	if r.PhysicalStatus != nil {
		sections = append(sections, renderStatus(r.PhysicalStatus))
	}

	sections = append(sections, renderCorrelations(r.Correlations))

	if len(r.Insights) > 0 {
		sections = append(sections, renderList("Insights", r.Insights, successStyle))
	}

	if len(r.Warnings) > 0 {
		var lines []string
		for _, w := range r.Warnings {
			lines = append(lines, fmt.Sprintf("%s: %s", w.Metric, w.Reason))
		}
		sections = append(sections, renderList("Warnings", lines, warningStyle))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderHeader(a analysis.ActivitySummary, u Units) string {
	sport := a.Sport
	if sport == "" {
		sport = "Activity"
	}
	title := headerStyle.Render(sport + " Analysis")

	var subtitle string
	if !a.StartTime.IsZero() {
		subtitle = subtitleStyle.Render(a.StartTime.Format("Monday, January 2, 2006 at 3:04 PM"))
	}

	stats := fmt.Sprintf("%s  •  %s", u.FormatDistance(a.DistanceMeters), formatDuration(int(a.DurationSeconds)))
	statsLine := lipgloss.NewStyle().Foreground(textColor).Bold(true).Render(stats)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, statsLine, "")
}

func renderSummary(m analysis.PerformanceMetrics, u Units) string {
	lines := []string{sectionStyle.Render("Summary")}

	if m.AverageSpeed != nil {
		lines = append(lines, RenderMetric("Average Speed", u.FormatSpeed(*m.AverageSpeed), ""))
	}
	if m.AveragePace != nil {
		lines = append(lines, RenderMetric("Average Pace", u.FormatPaceWithUnit(*m.AveragePace), ""))
	}
	if m.AverageHeartRate != nil {
		hr := fmt.Sprintf("%.0f bpm", *m.AverageHeartRate)
		if m.MaxHeartRate != nil {
			hr += fmt.Sprintf(" (max %.0f)", *m.MaxHeartRate)
		}
		lines = append(lines, RenderMetric("Heart Rate", hr, ""))
	}
	if m.AverageCadence != nil {
		lines = append(lines, RenderMetric("Cadence", fmt.Sprintf("%.0f", *m.AverageCadence), ""))
	}
	if m.ElevationGain != nil {
		lines = append(lines, RenderMetric("Elevation Gain", fmt.Sprintf("%s m", humanize.Comma(int64(math.Round(*m.ElevationGain)))), ""))
	}
	lines = append(lines,
		RenderMetric("Training Impulse", formatOptional(m.TRIMP, "%.0f"), ""),
		RenderMetric("Efficiency Factor", formatOptional(m.EfficiencyFactor, "%.3f"), ""),
		RenderMetric("Aerobic Decoupling", formatOptional(m.AerobicDecoupling, "%.1f%%"), decouplingNote(m.AerobicDecoupling)),
	)
	if m.DataQuality != nil {
		lines = append(lines, metricLabelStyle.Render("HR Data Quality")+RenderProgressBar(*m.DataQuality, 20)+
			fmt.Sprintf(" %.0f%%", *m.DataQuality*100))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderPower(pa *analysis.PowerAnalysis) string {
	lines := []string{
		sectionStyle.Render("Power"),
		RenderMetric("Average / Max", fmt.Sprintf("%.0f / %.0f W", pa.AveragePower, pa.MaxPower), ""),
		RenderMetric("Normalized Power", fmt.Sprintf("%.0f W", pa.NormalizedPower), ""),
		RenderMetric("Intensity Factor", formatOptional(pa.IntensityFactor, "%.2f"), ""),
		RenderMetric("Training Stress", formatOptional(pa.TrainingStressScore, "%.0f"), ""),
		RenderMetric("Variability Index", formatOptional(pa.VariabilityIndex, "%.2f"), ""),
		RenderMetric("Work", humanize.FormatFloat("#,###.", pa.WorkKilojoules)+" kJ", ""),
	}

	if len(pa.BestEfforts) > 0 {
		var efforts []string
		for _, e := range pa.BestEfforts {
			efforts = append(efforts, fmt.Sprintf("%s %.0fW", formatEffortDuration(e.DurationSeconds), e.Watts))
		}
		lines = append(lines, RenderMetric("Best Efforts", strings.Join(efforts, "  "), ""))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderZones(zones []analysis.HeartRateZone, maxHR *float64, source string) string {
	title := "HR Zone Distribution"
	if maxHR != nil {
		title = fmt.Sprintf("HR Zone Distribution (max HR %.0f, %s)", *maxHR, source)
	}
	lines := []string{sectionStyle.Render(title)}

	for i, z := range zones {
		barWidth := int(z.Percentage / 100 * zoneBarWidth)
		if barWidth < 1 && z.Seconds > 0 {
			barWidth = 1
		}
		bar := lipgloss.NewStyle().Foreground(zoneColors[i%len(zoneColors)]).Render(strings.Repeat("█", barWidth))
		label := fmt.Sprintf("  Z%d %-10s %3.0f-%-3.0f ", z.Zone, z.Label, z.MinHR, z.MaxHR)
		lines = append(lines, label+bar+fmt.Sprintf(" %5.1f%% (%s)", z.Percentage, formatDuration(int(z.Seconds))))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderChart(title string, data []float64) string {
	lines := []string{sectionStyle.Render(title)}
	lines = append(lines, asciigraph.Plot(downsample(data, chartPoints),
		asciigraph.Height(8),
		asciigraph.Width(50),
	))
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderTrainingLoad(t analysis.TrainingLoadState) string {
	lines := []string{sectionStyle.Render("Training Load")}

	if t.ActivityLoad != nil {
		lines = append(lines, RenderMetric("This Activity", fmt.Sprintf("%.0f", *t.ActivityLoad), t.LoadSource))
	}
	lines = append(lines,
		RenderMetric("Acute / Chronic", fmt.Sprintf("%.0f / %.0f", t.AcuteLoad, t.ChronicLoad), ""),
		RenderMetric("ACWR", formatOptional(t.ACWR, "%.2f"), "")+"  "+riskStyle(t.RiskLevel).Render(t.RiskLevel),
		RenderMetric("Fitness / Fatigue", fmt.Sprintf("%.1f / %.1f", t.Fitness, t.Fatigue), ""),
		RenderMetric("Readiness", fmt.Sprintf("%+.1f", t.Readiness), t.ReadinessLabel),
	)
	if t.SufferScore != nil {
		lines = append(lines, RenderMetric("Suffer Score", fmt.Sprintf("%.0f", *t.SufferScore), ""))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderStatus(s *analysis.PhysicalStatus) string {
	lines := []string{sectionStyle.Render("Physical Status")}

	if s.FTP != nil {
		lines = append(lines, RenderMetric("FTP", fmt.Sprintf("%.0f W", s.FTP.Watts), s.FTP.Source))
	}
	if s.VO2Max != nil {
		lines = append(lines, RenderMetric("VO2 Max", fmt.Sprintf("%.1f", s.VO2Max.Value), s.VO2Max.Label))
	}
	if cp := s.CriticalPower; cp != nil && cp.CP != nil {
		value := fmt.Sprintf("%.0f W", *cp.CP)
		if cp.WPrime != nil {
			value += fmt.Sprintf(", W' %s J", humanize.Comma(int64(math.Round(*cp.WPrime))))
		}
		lines = append(lines, RenderMetric("Critical Power", value, ""))
	}
	if s.HRRecovery != nil {
		lines = append(lines, RenderMetric("HR Recovery (60s)", fmt.Sprintf("%.0f bpm", *s.HRRecovery), ""))
	}
	if s.RunningEconomy != nil {
		lines = append(lines, RenderMetric("Running Economy", fmt.Sprintf("%.2f J/kg/m", *s.RunningEconomy), ""))
	}
	for _, rec := range s.Recommendations {
		lines = append(lines, "  • "+rec)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderCorrelations(c analysis.CorrelationSet) string {
	lines := []string{sectionStyle.Render("Correlations")}
	pairs := []struct {
		label string
		value *float64
	}{
		{"Power ~ Speed", c.PowerSpeed},
		{"HR ~ Power", c.HeartRatePower},
		{"Grade ~ HR", c.GradeHeartRate},
	}
	for _, p := range pairs {
		strength := ""
		if p.value != nil {
			strength = analysis.CorrelationStrength(*p.value)
		}
		lines = append(lines, RenderMetric(p.label, formatOptional(p.value, "%+.2f"), strength))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func renderList(title string, items []string, style lipgloss.Style) string {
	lines := []string{sectionStyle.Render(title)}
	for _, item := range items {
		lines = append(lines, style.Render("  • "+item))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func formatOptional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func decouplingNote(v *float64) string {
	if v == nil {
		return ""
	}
	return analysis.DecouplingAssessment(*v)
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", seconds)
}

func formatEffortDuration(seconds int) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds%60 == 0:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
	}
}

// compact drops missing samples so gaps don't break the plot
func compact(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func downsample(data []float64, targetLen int) []float64 {
	if len(data) <= targetLen {
		return data
	}

	result := make([]float64, targetLen)
	ratio := float64(len(data)) / float64(targetLen)

	for i := 0; i < targetLen; i++ {
		start := int(float64(i) * ratio)
		end := int(float64(i+1) * ratio)
		if end > len(data) {
			end = len(data)
		}

		sum := 0.0
		count := 0
		for j := start; j < end; j++ {
			sum += data[j]
			count++
		}
		if count > 0 {
			result[i] = sum / float64(count)
		}
	}

	return result
}
