package awhere

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgronomicsValues(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v2/agronomics/fields/field-a/agronomicvalues/2023-04-01,2023-04-03", req.URL.Path)
		return jsonResponse(200, `{"dailyValues": [
			{"date": "2023-04-01", "gdd": 4.5, "pet": {"amount": 3.1, "units": "mm"}, "accumulatedGdd": 4.5},
			{"date": "2023-04-02", "gdd": 6.0, "pet": {"amount": 3.4, "units": "mm"}, "accumulatedGdd": 10.5},
			{"date": "2023-04-03", "gdd": 5.2, "pet": {"amount": 2.9, "units": "mm"}, "accumulatedGdd": 15.7}
		]}`), nil
	})
	c.token = "tok"

	table, err := c.Agronomics.Values(context.Background(), "field-a", "2023-04-01", "2023-04-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "gdd", "pet.amount", "accumulatedGdd"}, table.Columns)
	assert.Equal(t, []float64{4.5, 10.5, 15.7}, table.Floats("accumulatedGdd"))
}

func TestAgronomicsValuesGDDOptions(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		require.Equal(t, "modifiedstandard", q.Get("gddMethod"))
		require.Equal(t, "10", q.Get("gddBaseTemp"))
		require.Equal(t, "10", q.Get("gddMinBoundary"))
		require.Equal(t, "30", q.Get("gddMaxBoundary"))
		return jsonResponse(200, `{"dailyValues": [{"date": "2023-04-01", "gdd": 4.5}]}`), nil
	})
	c.token = "tok"

	_, err := c.Agronomics.Values(context.Background(), "field-a", "2023-04-01", "2023-04-03",
		GDDMethod("modifiedstandard"), GDDBaseTemp(10), GDDBoundaries(10, 30))
	require.NoError(t, err)
}

func TestAgronomicsValuesBadMethod(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(200, `{"dailyValues": []}`), nil
	})
	c.token = "tok"

	_, err := c.Agronomics.Values(context.Background(), "field-a", "2023-04-01", "2023-04-03",
		GDDMethod("sine-wave"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "gddMethod", verr.Param)
	assert.Equal(t, int32(0), calls.Load())
}

func TestAgronomicsValuesLatLon(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v2/agronomics/locations/-1.29,36.82/agronomicvalues/2023-04-01,2023-04-02", req.URL.Path)
		return jsonResponse(200, `{"dailyValues": [{"date": "2023-04-01", "gdd": 9.1}]}`), nil
	})
	c.token = "tok"

	table, err := c.Agronomics.ValuesLatLon(context.Background(), -1.29, 36.82, "2023-04-01", "2023-04-02")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
}

func TestAgronomicsNorms(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v2/agronomics/fields/field-a/agronomicnorms/06-01,06-03/years/2015,2020", req.URL.Path)
		return jsonResponse(200, `{"dailyAverages": [
			{"day": "06-01", "gdd": {"average": 11.2, "stdDev": 1.4}},
			{"day": "06-02", "gdd": {"average": 11.6, "stdDev": 1.1}},
			{"day": "06-03", "gdd": {"average": 12.0, "stdDev": 1.7}}
		]}`), nil
	})
	c.token = "tok"

	table, err := c.Agronomics.Norms(context.Background(), "field-a", "06-01", "06-03", 2015, 2020)
	require.NoError(t, err)
	assert.Equal(t, []string{"day", "gdd.average", "gdd.stdDev"}, table.Columns)
	assert.Equal(t, []float64{11.2, 11.6, 12.0}, table.Floats("gdd.average"))
}

func TestAgronomicsNormsShortSpan(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(200, `{"dailyAverages": []}`), nil
	})
	c.token = "tok"

	_, err := c.Agronomics.Norms(context.Background(), "field-a", "06-01", "06-03", 2019, 2020)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "years", verr.Param)
	assert.Equal(t, int32(0), calls.Load())
}
