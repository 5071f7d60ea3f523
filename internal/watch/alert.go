package watch

import (
	"fmt"
	"math"

	"github.com/gen2brain/beeep"

	awhere "github.com/MwendaMugendi/awhere-go"
)

// notify is swapped out by tests.
var notify = beeep.Notify

// FrostAlerter raises a desktop notification the first time a forecast
// low drops to the threshold. It stays quiet while the forecast remains
// cold and re-arms once the low recovers above the threshold, so one cold
// spell produces one alert.
type FrostAlerter struct {
	threshold float64
	lastMin   float64
	hasLast   bool
}

// NewFrostAlerter creates an alerter for a threshold in degrees Celsius.
func NewFrostAlerter(threshold float64) *FrostAlerter {
	return &FrostAlerter{threshold: threshold}
}

// Threshold returns the alert cutoff.
func (a *FrostAlerter) Threshold() float64 {
	return a.threshold
}

// LastMin returns the lowest reading of the most recent forecast.
func (a *FrostAlerter) LastMin() (float64, bool) {
	return a.lastMin, a.hasLast
}

// Check scans a forecast table and notifies on a downward crossing of the
// threshold. Tables without numeric lows leave the alerter state alone.
func (a *FrostAlerter) Check(fieldID string, forecast *awhere.Table) {
	if forecast == nil {
		return
	}

	low := math.NaN()
	for _, v := range forecast.Floats("temperatures.min") {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(low) || v < low {
			low = v
		}
	}
	if math.IsNaN(low) {
		return
	}

	wasAbove := !a.hasLast || a.lastMin > a.threshold
	a.lastMin = low
	a.hasLast = true

	if low <= a.threshold && wasAbove {
		title := fmt.Sprintf("Frost risk: %s", fieldID)
		body := fmt.Sprintf("Forecast low %.1fC is at or below %.1fC", low, a.threshold)
		_ = notify(title, body, "")
	}
}
