package awhere

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsList(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{
			"fields": [
				{"id": "field-a", "name": "North 40", "acres": 40, "centerPoint": {"latitude": 39.8, "longitude": -98.5}},
				{"id": "field-b", "name": "South 20", "acres": 20, "centerPoint": {"latitude": 38.1, "longitude": -97.2}}
			],
			"_links": {"self": {"href": "/v2/fields"}}
		}`), nil
	})
	c.token = "tok"

	fields, err := c.Fields.List(context.Background())
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, "field-a", fields[0].ID)
	assert.Equal(t, "North 40", fields[0].Name)
	assert.Equal(t, 39.8, fields[0].CenterPoint.Latitude)
}

// Listing follows _links.next until the last page and stitches the pages
// together in order.
func TestFieldsListPagination(t *testing.T) {
	var paths []string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		paths = append(paths, req.URL.RequestURI())
		if req.URL.Query().Get("offset") == "" {
			return jsonResponse(200, `{
				"fields": [{"id": "field-1"}, {"id": "field-2"}],
				"_links": {"next": {"href": "/v2/fields?limit=2&offset=2"}}
			}`), nil
		}
		return jsonResponse(200, `{
			"fields": [{"id": "field-3"}],
			"_links": {"self": {"href": "/v2/fields?limit=2&offset=2"}}
		}`), nil
	})
	c.token = "tok"

	fields, err := c.Fields.List(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	assert.Equal(t, []string{"field-1", "field-2", "field-3"}, ids)
	require.Len(t, paths, 2)
	assert.Equal(t, "/v2/fields", paths[0])
	assert.Equal(t, "/v2/fields?limit=2&offset=2", paths[1])
}

func TestFieldsGet(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/v2/fields/field-a", req.URL.Path)
		return jsonResponse(200, `{"id": "field-a", "farmId": "farm-1", "centerPoint": {"latitude": 39.8, "longitude": -98.5}}`), nil
	})
	c.token = "tok"

	field, err := c.Fields.Get(context.Background(), "field-a")
	require.NoError(t, err)
	assert.Equal(t, "farm-1", field.FarmID)
}

func TestFieldsGetBadID(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(200, `{}`), nil
	})
	c.token = "tok"

	_, err := c.Fields.Get(context.Background(), "bad/id")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fieldId", verr.Param)
	assert.Equal(t, int32(0), calls.Load(), "validation fails before any network call")
}

func TestFieldsCreate(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/v2/fields", req.URL.Path)
		var got Field
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		require.Equal(t, "field-a", got.ID)
		require.Equal(t, 39.8, got.CenterPoint.Latitude)
		return jsonResponse(201, `{"id": "field-a", "centerPoint": {"latitude": 39.8, "longitude": -98.5}}`), nil
	})
	c.token = "tok"

	created, err := c.Fields.Create(context.Background(), Field{
		ID:          "field-a",
		CenterPoint: Point{Latitude: 39.8, Longitude: -98.5},
	})
	require.NoError(t, err)
	assert.Equal(t, "field-a", created.ID)
}

func TestFieldsCreateGeneratesID(t *testing.T) {
	var sentID string
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		var got Field
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		sentID = got.ID
		return jsonResponse(201, `{"id": "`+got.ID+`"}`), nil
	})
	c.token = "tok"

	created, err := c.Fields.Create(context.Background(), Field{
		CenterPoint: Point{Latitude: 39.8, Longitude: -98.5},
	})
	require.NoError(t, err)
	assert.Len(t, sentID, len("field-")+8)
	assert.Contains(t, sentID, "field-")
	assert.Equal(t, sentID, created.ID)
}

func TestFieldsCreateBadCoordinates(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(201, `{}`), nil
	})
	c.token = "tok"

	_, err := c.Fields.Create(context.Background(), Field{
		ID:          "field-a",
		CenterPoint: Point{Latitude: 95, Longitude: -98.5},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "latitude", verr.Param)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFieldsUpdate(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPatch, req.Method)
		require.Equal(t, "/v2/fields/field-a", req.URL.Path)
		var ops []UpdateOp
		require.NoError(t, json.NewDecoder(req.Body).Decode(&ops))
		require.Len(t, ops, 1)
		require.Equal(t, UpdateOp{Op: "update", Path: "/name", Value: "Renamed"}, ops[0])
		return jsonResponse(200, `{"id": "field-a", "name": "Renamed"}`), nil
	})
	c.token = "tok"

	updated, err := c.Fields.Update(context.Background(), "field-a", UpdateName("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestFieldsUpdateNoOps(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	c.token = "tok"

	_, err := c.Fields.Update(context.Background(), "field-a")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestFieldsDelete(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodDelete, req.Method)
		require.Equal(t, "/v2/fields/field-a", req.URL.Path)
		return jsonResponse(204, ""), nil
	})
	c.token = "tok"

	require.NoError(t, c.Fields.Delete(context.Background(), "field-a"))
}

func TestFieldsCreateConflict(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(409, `{"statusName":"Conflict","simpleMessage":"Field id already in use"}`), nil
	})
	c.token = "tok"

	_, err := c.Fields.Create(context.Background(), Field{
		ID:          "field-a",
		CenterPoint: Point{Latitude: 39.8, Longitude: -98.5},
	})
	var apierr *APIError
	require.ErrorAs(t, err, &apierr)
	assert.Equal(t, 409, apierr.StatusCode)
}
