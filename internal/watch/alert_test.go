package watch

import (
	"strings"
	"testing"

	awhere "github.com/MwendaMugendi/awhere-go"
)

// captureNotify swaps the desktop notifier for a recorder.
func captureNotify(t *testing.T) *[]string {
	t.Helper()
	calls := &[]string{}
	orig := notify
	notify = func(title, message, icon string) error {
		*calls = append(*calls, title+" | "+message)
		return nil
	}
	t.Cleanup(func() { notify = orig })
	return calls
}

func forecastWithLows(lows ...float64) *awhere.Table {
	tbl := &awhere.Table{Columns: []string{"startTime", "temperatures.min"}}
	for _, low := range lows {
		tbl.Rows = append(tbl.Rows, awhere.Row{
			"startTime":        "2023-04-05T00:00:00",
			"temperatures.min": low,
		})
	}
	return tbl
}

func TestFrostAlerter_CrossingDown(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", forecastWithLows(4, -1.5, 3))

	if len(*calls) != 1 {
		t.Fatalf("notify calls = %d, want 1", len(*calls))
	}
	if !strings.Contains((*calls)[0], "field-a") || !strings.Contains((*calls)[0], "-1.5") {
		t.Errorf("notification = %q, want field and low", (*calls)[0])
	}
	if low, ok := a.LastMin(); !ok || low != -1.5 {
		t.Errorf("LastMin = %v, %v, want -1.5, true", low, ok)
	}
}

func TestFrostAlerter_NoRepeatWhileCold(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", forecastWithLows(-1.5))
	a.Check("field-a", forecastWithLows(-2))

	if len(*calls) != 1 {
		t.Errorf("notify calls = %d, want 1", len(*calls))
	}
}

func TestFrostAlerter_RearmsAfterRecovery(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", forecastWithLows(-1.5))
	a.Check("field-a", forecastWithLows(5))
	a.Check("field-a", forecastWithLows(-0.5))

	if len(*calls) != 2 {
		t.Errorf("notify calls = %d, want 2", len(*calls))
	}
}

func TestFrostAlerter_AboveThreshold(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", forecastWithLows(3, 4))

	if len(*calls) != 0 {
		t.Errorf("notify calls = %d, want 0", len(*calls))
	}
	if low, ok := a.LastMin(); !ok || low != 3 {
		t.Errorf("LastMin = %v, %v, want 3, true", low, ok)
	}
}

func TestFrostAlerter_ExactThreshold(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", forecastWithLows(0))

	if len(*calls) != 1 {
		t.Errorf("notify calls = %d, want 1", len(*calls))
	}
}

func TestFrostAlerter_IgnoresNonNumeric(t *testing.T) {
	calls := captureNotify(t)
	a := NewFrostAlerter(0)

	a.Check("field-a", nil)
	a.Check("field-a", &awhere.Table{
		Columns: []string{"startTime"},
		Rows:    []awhere.Row{{"startTime": "2023-04-05T00:00:00"}},
	})

	if len(*calls) != 0 {
		t.Errorf("notify calls = %d, want 0", len(*calls))
	}
	if _, ok := a.LastMin(); ok {
		t.Error("LastMin should stay unset without numeric lows")
	}
}
