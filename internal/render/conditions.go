package render

import (
	"fmt"
	"strings"

	awhere "github.com/MwendaMugendi/awhere-go"
)

// Conditions renders a current-conditions snapshot as a bordered card.
// The temperature line is colored by band, with frostThreshold marking
// the cold alert cutoff.
func Conditions(cc *awhere.CurrentConditions, frostThreshold float64) string {
	if cc == nil {
		return HelpStyle.Render("No conditions available")
	}

	lines := []string{
		CardTitleStyle.Render(conditionsTitle(cc.Location)),
		keyValue("Observed", cc.DateTime),
	}
	if cc.ConditionsText != "" {
		lines = append(lines, keyValue("Sky", cc.ConditionsText))
	}
	if cc.Temperature != nil {
		style := TempStyle(cc.Temperature.Amount, frostThreshold)
		lines = append(lines, keyValue("Temperature", style.Render(measure(cc.Temperature))))
	}
	if cc.Precipitation != nil {
		lines = append(lines, keyValue("Precipitation", measure(cc.Precipitation)))
	}
	if cc.RelativeHumidity != nil {
		lines = append(lines, keyValue("Humidity", measure(cc.RelativeHumidity)))
	}
	if cc.Wind != nil {
		lines = append(lines, keyValue("Wind", windReading(cc.Wind)))
	}
	if cc.Solar != nil {
		lines = append(lines, keyValue("Solar", measure(cc.Solar)))
	}
	return CardStyle.Render(strings.Join(lines, "\n"))
}

func conditionsTitle(loc awhere.Location) string {
	if loc.FieldID != "" {
		return loc.FieldID
	}
	return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
}

func keyValue(label, value string) string {
	return LabelStyle.Render(label) + value
}

func measure(m *awhere.Measure) string {
	s := formatNumber(m.Amount)
	if m.Units != "" {
		s += " " + m.Units
	}
	return s
}

func windReading(w *awhere.Wind) string {
	s := formatNumber(w.Amount)
	if w.Units != "" {
		s += " " + w.Units
	}
	if w.Direction != "" {
		s += " " + w.Direction
	}
	return s
}
