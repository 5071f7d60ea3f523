package watch

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/render"
)

// forecastColumns is the subset of forecast columns shown on the
// dashboard, in display order.
var forecastColumns = []string{
	"startTime",
	"temperatures.max",
	"temperatures.min",
	"precipitation.chance",
	"precipitation.amount",
	"conditionsText",
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.conditions == nil && m.loading {
		return render.CenterHorizontal(
			m.spin.View()+" Fetching field conditions...",
			max(m.width, 30),
		)
	}

	var sections []string
	sections = append(sections, m.renderTitle())

	if m.err != nil {
		sections = append(sections, render.ErrorTextStyle.Render("  "+m.err.Error()), "")
	}
	if m.conditions != nil {
		sections = append(sections, render.Conditions(m.conditions, m.alerts.Threshold()))
	}

	sections = append(sections, m.renderForecast())
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTitle() string {
	title := render.TitleStyle.Render("Field Watch")
	subtitle := render.HelpStyle.Render(m.fieldID)
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderForecast() string {
	if m.forecast == nil || m.forecast.Empty() {
		return render.HelpStyle.Render("No forecast available")
	}

	var rows []string
	rows = append(rows, render.SubTitleStyle.Render(fmt.Sprintf("Next %d days", forecastDays)))

	if line := m.renderTempSparklines(); line != "" {
		rows = append(rows, line, "")
	}
	if warn := m.renderFrostWarning(); warn != "" {
		rows = append(rows, warn, "")
	}

	rows = append(rows, render.Table(forecastView(m.forecast), m.width))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) renderTempSparklines() string {
	highs := trimNaN(m.forecast.Floats("temperatures.max"))
	lows := trimNaN(m.forecast.Floats("temperatures.min"))
	if len(highs) == 0 && len(lows) == 0 {
		return ""
	}
	var parts []string
	if len(highs) > 0 {
		parts = append(parts, render.HelpStyle.Render("high ")+render.Sparkline(highs, 24))
	}
	if len(lows) > 0 {
		parts = append(parts, render.HelpStyle.Render("low ")+render.Sparkline(lows, 24))
	}
	return strings.Join(parts, "   ")
}

func (m *Model) renderFrostWarning() string {
	low, ok := m.alerts.LastMin()
	if !ok || low > m.alerts.Threshold() {
		return ""
	}
	return render.FrostStyle.Render(fmt.Sprintf("Frost risk: forecast low %.1fC", low))
}

func (m *Model) renderFooter() string {
	help := strings.Join([]string{
		render.HelpKeyStyle.Render("r") + render.HelpStyle.Render(" refresh"),
		render.HelpKeyStyle.Render("q") + render.HelpStyle.Render(" quit"),
	}, render.HelpStyle.Render("  ·  "))

	status := ""
	switch {
	case m.loading:
		status = m.spin.View() + render.HelpStyle.Render(" refreshing")
	case !m.lastUpdated.IsZero():
		status = render.HelpStyle.Render("updated " + m.lastUpdated.Format(time.Kitchen))
	}

	return lipgloss.JoinVertical(lipgloss.Left, "", help+"   "+status)
}

// forecastView narrows a forecast table to the dashboard columns. Tables
// missing all of them come back unchanged.
func forecastView(t *awhere.Table) *awhere.Table {
	out := &awhere.Table{Rows: t.Rows}
	for _, col := range forecastColumns {
		if slices.Contains(t.Columns, col) {
			out.Columns = append(out.Columns, col)
		}
	}
	if len(out.Columns) == 0 {
		return t
	}
	return out
}

func trimNaN(values []float64) []float64 {
	var out []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
