package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/store"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// newTestSyncer wires a syncer to a mock API. The mock answers the token
// exchange itself so test clients authenticate normally.
func newTestSyncer(t *testing.T, observations func(req *http.Request) (*http.Response, error)) (*Syncer, *store.Store) {
	t.Helper()

	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == "/oauth/token" {
			return jsonResponse(200, `{"access_token": "test-token"}`), nil
		}
		return observations(req)
	})

	client, err := awhere.NewClient("key", "secret",
		awhere.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	syncer := New(client, st)
	syncer.now = func() time.Time {
		return time.Date(2023, 4, 10, 12, 0, 0, 0, time.UTC)
	}
	return syncer, st
}

func observationsBody(dates ...string) string {
	var rows []string
	for i, d := range dates {
		rows = append(rows, fmt.Sprintf(
			`{"date": %q, "temperatures": {"max": %d.5, "min": %d.0, "units": "C"}}`, d, 15+i, 5+i))
	}
	return `{"observations": [` + strings.Join(rows, ",") + `]}`
}

func TestSyncField_Backfill(t *testing.T) {
	var gotPath string
	syncer, st := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		return jsonResponse(200, observationsBody("2023-04-08", "2023-04-09")), nil
	})

	res := syncer.SyncField(context.Background(), "field-a", "")
	if res.Err != nil {
		t.Fatalf("SyncField failed: %v", res.Err)
	}

	// Empty archive backfills 30 days up to yesterday.
	wantPath := "/v2/weather/fields/field-a/observations/2023-03-11,2023-04-09"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
	if res.Start != "2023-03-11" || res.End != "2023-04-09" {
		t.Errorf("range = %s,%s, want 2023-03-11,2023-04-09", res.Start, res.End)
	}

	// Two days, two numeric metrics each.
	if res.RowsWritten != 4 {
		t.Errorf("RowsWritten = %d, want 4", res.RowsWritten)
	}

	run, err := st.LastSync("field-a")
	if err != nil {
		t.Fatalf("LastSync failed: %v", err)
	}
	if run == nil || run.RowsWritten != 4 {
		t.Errorf("LastSync = %+v, want a run with 4 rows", run)
	}
}

func TestSyncField_Incremental(t *testing.T) {
	var gotPath string
	syncer, st := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		return jsonResponse(200, observationsBody("2023-04-08")), nil
	})

	seed := &awhere.Table{
		Columns: []string{"date", "temperatures.max"},
		Rows:    []awhere.Row{{"date": "2023-04-07", "temperatures.max": 18.0}},
	}
	if _, err := st.UpsertObservations("field-a", "date", seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res := syncer.SyncField(context.Background(), "field-a", "")
	if res.Err != nil {
		t.Fatalf("SyncField failed: %v", res.Err)
	}

	// Resumes the day after the newest archived observation.
	wantPath := "/v2/weather/fields/field-a/observations/2023-04-08,2023-04-09"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
}

func TestSyncField_ExplicitSince(t *testing.T) {
	var gotPath string
	syncer, _ := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		gotPath = req.URL.Path
		return jsonResponse(200, observationsBody("2023-04-01")), nil
	})

	res := syncer.SyncField(context.Background(), "field-a", "2023-04-01")
	if res.Err != nil {
		t.Fatalf("SyncField failed: %v", res.Err)
	}

	wantPath := "/v2/weather/fields/field-a/observations/2023-04-01,2023-04-09"
	if gotPath != wantPath {
		t.Errorf("path = %q, want %q", gotPath, wantPath)
	}
}

func TestSyncField_AlreadyCurrent(t *testing.T) {
	var calls atomic.Int32
	syncer, st := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(200, observationsBody()), nil
	})

	seed := &awhere.Table{
		Columns: []string{"date", "temperatures.max"},
		Rows:    []awhere.Row{{"date": "2023-04-09", "temperatures.max": 18.0}},
	}
	if _, err := st.UpsertObservations("field-a", "date", seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res := syncer.SyncField(context.Background(), "field-a", "")
	if res.Err != nil {
		t.Fatalf("SyncField failed: %v", res.Err)
	}
	if res.RowsWritten != 0 {
		t.Errorf("RowsWritten = %d, want 0", res.RowsWritten)
	}
	if calls.Load() != 0 {
		t.Errorf("API calls = %d, want 0 for a current archive", calls.Load())
	}
}

func TestSyncField_APIError(t *testing.T) {
	syncer, st := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, `{"statusCode": 500, "simpleMessage": "boom"}`), nil
	})

	res := syncer.SyncField(context.Background(), "field-a", "2023-04-01")
	if res.Err == nil {
		t.Fatal("SyncField should surface the API error")
	}

	run, err := st.LastSync("field-a")
	if err != nil {
		t.Fatalf("LastSync failed: %v", err)
	}
	if run == nil || run.Error == "" {
		t.Errorf("LastSync = %+v, want a run with a recorded error", run)
	}
}

func TestSyncAll(t *testing.T) {
	syncer, _ := newTestSyncer(t, func(req *http.Request) (*http.Response, error) {
		if strings.Contains(req.URL.Path, "field-bad") {
			return jsonResponse(500, `{"statusCode": 500, "simpleMessage": "boom"}`), nil
		}
		return jsonResponse(200, observationsBody("2023-04-09")), nil
	})

	results := syncer.SyncAll(context.Background(), []string{"field-a", "field-bad", "field-c"}, "2023-04-09")
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].FieldID != "field-a" || results[0].Err != nil {
		t.Errorf("results[0] = %+v, want field-a success", results[0])
	}
	if results[1].FieldID != "field-bad" || results[1].Err == nil {
		t.Errorf("results[1] = %+v, want field-bad failure", results[1])
	}
	if results[2].FieldID != "field-c" || results[2].Err != nil {
		t.Errorf("results[2] = %+v, want field-c success", results[2])
	}
}
