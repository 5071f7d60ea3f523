package watch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/credentials"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

const conditionsBody = `{
	"dateTime": "2023-04-05T10:00:00Z",
	"location": {"latitude": -1.29, "longitude": 36.82, "fieldId": "field-a"},
	"conditionsText": "Clear",
	"temperature": {"amount": 21.5, "units": "C"},
	"wind": {"amount": 3.2, "units": "m/sec", "direction": "NNE"}
}`

func forecastBody(lows ...float64) string {
	days := make([]string, len(lows))
	for i, low := range lows {
		days[i] = fmt.Sprintf(`{
			"date": "2023-04-%02d",
			"forecast": [{
				"startTime": "2023-04-%02dT00:00:00",
				"endTime": "2023-04-%02dT23:00:00",
				"conditionsText": "Clear",
				"temperatures": {"max": %g, "min": %g}
			}]
		}`, 5+i, 5+i, 5+i, low+10, low)
	}
	return `{"forecasts":[` + strings.Join(days, ",") + `]}`
}

// newTestModel builds a dashboard model whose client answers from canned
// responses, with forecast lows as given.
func newTestModel(t *testing.T, lows ...float64) *Model {
	t.Helper()
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/oauth/token"):
			return jsonResponse(http.StatusOK, `{"access_token":"tok","expires_in":3600}`), nil
		case strings.Contains(r.URL.Path, "/currentconditions"):
			return jsonResponse(http.StatusOK, conditionsBody), nil
		case strings.Contains(r.URL.Path, "/forecasts/"):
			return jsonResponse(http.StatusOK, forecastBody(lows...)), nil
		}
		return jsonResponse(http.StatusNotFound, `{}`), nil
	})
	client, err := awhere.NewClient("key", "secret",
		awhere.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return New(client, "field-a", time.Minute, 0, nil)
}

// fetchRound runs one fetch synchronously and feeds the result through
// Update.
func fetchRound(t *testing.T, m *Model) (*Model, tea.Cmd) {
	t.Helper()
	msg := m.fetchCmd()()
	dm, ok := msg.(dataMsg)
	if !ok {
		t.Fatalf("fetchCmd returned %T, want dataMsg", msg)
	}
	updated, cmd := m.Update(dm)
	return updated.(*Model), cmd
}

func TestNew(t *testing.T) {
	m := newTestModel(t, 9.4)
	if m == nil {
		t.Fatal("New returned nil")
	}
	if !m.loading {
		t.Error("new model should start loading")
	}
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(t, 9.4)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_FetchRound(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4, 8.1)

	m, cmd := fetchRound(t, m)

	if m.loading {
		t.Error("loading should clear after data arrives")
	}
	if m.err != nil {
		t.Fatalf("err = %v", m.err)
	}
	if m.conditions == nil || m.conditions.Location.FieldID != "field-a" {
		t.Errorf("conditions = %+v, want field-a", m.conditions)
	}
	if m.forecast == nil || len(m.forecast.Rows) != 2 {
		t.Fatalf("forecast rows = %v, want 2", m.forecast)
	}
	if cmd == nil {
		t.Error("data round should arm the next refresh tick")
	}
}

func TestModel_FetchNotifiesOnFrost(t *testing.T) {
	calls := captureNotify(t)
	m := newTestModel(t, 9.4, -1.2)

	fetchRound(t, m)

	if len(*calls) != 1 {
		t.Errorf("notify calls = %d, want 1", len(*calls))
	}
}

func TestModel_View(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4, -1.2)
	m, _ = fetchRound(t, m)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(*Model)

	view := m.View()
	for _, want := range []string{"Field Watch", "field-a", "Clear", "21.5 C", "Next 5 days", "Frost risk", "refresh"} {
		if !strings.Contains(view, want) {
			t.Errorf("View missing %q:\n%s", want, view)
		}
	}
}

func TestModel_ViewLoading(t *testing.T) {
	m := newTestModel(t, 9.4)
	if view := m.View(); !strings.Contains(view, "Fetching") {
		t.Errorf("initial View = %q, want fetching message", view)
	}
}

func TestModel_QuitKey(t *testing.T) {
	m := newTestModel(t, 9.4)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("quit key returned nil cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key should produce tea.QuitMsg")
	}
}

func TestModel_RefreshKey(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4)
	m, _ = fetchRound(t, m)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = updated.(*Model)
	if !m.loading {
		t.Error("refresh key should start loading")
	}
	if cmd == nil {
		t.Error("refresh key should issue a fetch")
	}
}

func TestModel_RefreshKeyWhileLoading(t *testing.T) {
	m := newTestModel(t, 9.4)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd != nil {
		t.Error("refresh during a fetch should be ignored")
	}
}

func TestModel_TickWhileLoadingDropped(t *testing.T) {
	m := newTestModel(t, 9.4)
	_, cmd := m.Update(refreshTickMsg(time.Now()))
	if cmd != nil {
		t.Error("tick during a fetch should drop, not reschedule")
	}
}

func TestModel_TickIdleStartsFetch(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4)
	m, _ = fetchRound(t, m)

	updated, cmd := m.Update(refreshTickMsg(time.Now()))
	m = updated.(*Model)
	if !m.loading || cmd == nil {
		t.Error("idle tick should start the next fetch")
	}
}

func TestModel_DataError(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4)
	m, _ = fetchRound(t, m)
	hadConditions := m.conditions

	updated, cmd := m.Update(dataMsg{err: errors.New("request timed out")})
	m = updated.(*Model)

	if m.err == nil {
		t.Error("error should surface on the model")
	}
	if m.conditions != hadConditions {
		t.Error("stale data should survive a failed refresh")
	}
	if cmd == nil {
		t.Error("failed round should still arm the next tick")
	}
	if view := m.View(); !strings.Contains(view, "request timed out") {
		t.Errorf("View should show the error:\n%s", view)
	}
}

func TestModel_CredentialRotation(t *testing.T) {
	captureNotify(t)
	m := newTestModel(t, 9.4)
	m, _ = fetchRound(t, m)

	updated, cmd := m.Update(credsMsg{
		Type:  credentials.EventChanged,
		Creds: credentials.Credentials{APIKey: "key-2", APISecret: "secret-2"},
	})
	m = updated.(*Model)

	if !m.loading {
		t.Error("rotation should trigger an immediate refresh")
	}
	if cmd == nil {
		t.Error("rotation should issue commands")
	}
}
