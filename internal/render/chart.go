package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

// Chart series colors.
var (
	ObservedColor = lipgloss.Color("42") // Green
	NormalColor   = lipgloss.Color("39") // Blue
)

// LineChart creates a single-series ASCII line chart.
func LineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return HelpStyle.Render("No data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// OverlayChart plots an observed series against its long-term normal.
// The series may differ in length and are plotted as-is; zero is a
// meaningful reading for most weather metrics, so the shorter series is
// never padded.
func OverlayChart(observed, normal []float64, width, height int, caption string) string {
	if len(observed) == 0 && len(normal) == 0 {
		return HelpStyle.Render("No data available")
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.PlotMany([][]float64{observed, normal},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Green,
			asciigraph.Blue,
		),
	)
}

// Sparkline creates a compact inline chart. Values are scaled between the
// series min and max so below-zero temperatures still produce a visible
// shape; NaN readings render as gaps.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return ""
	}

	sparkChars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if minVal > maxVal {
		return ""
	}
	span := maxVal - minVal
	if span == 0 {
		span = 1
	}

	// Sample values to fit width
	var result strings.Builder
	step := float64(len(values)) / float64(width)
	if step < 1 {
		step = 1
	}

	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		if math.IsNaN(val) {
			result.WriteByte(' ')
			continue
		}
		normalized := int((val - minVal) / span * float64(len(sparkChars)-1))
		if normalized >= len(sparkChars) {
			normalized = len(sparkChars) - 1
		}
		if normalized < 0 {
			normalized = 0
		}
		result.WriteRune(sparkChars[normalized])
	}

	return result.String()
}

// Legend creates a chart legend.
func Legend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}
