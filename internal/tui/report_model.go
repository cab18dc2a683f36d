package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"training-insights/internal/analysis"
)

// ReportModel is a scrollable view of one analysis report
type ReportModel struct {
	result   *analysis.Result
	activity analysis.ActivitySummary
	units    Units
	viewport viewport.Model
	ready    bool
}

// NewReportModel creates a report model for the given result
func NewReportModel(r *analysis.Result, a analysis.ActivitySummary, units Units) ReportModel {
	return ReportModel{
		result:   r,
		activity: a,
		units:    units,
	}
}

// Init initializes the report screen
func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3) // Reserve space for footer
			m.viewport.SetContent(RenderReport(m.result, m.activity, m.units))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the report screen
func (m ReportModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  " + RenderKeyHelp("j/k", "scroll") + "  " +
		RenderKeyHelp("g/G", "top/bottom") + "  " + RenderKeyHelp("q", "quit"))

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

