package awhere

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// FieldsService manages the field locations registered under an account.
// Weather and agronomic queries reference locations by field ID.
type FieldsService service

// Point is a geographic coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Field is a named grower location registered with the platform.
type Field struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name,omitempty"`
	FarmID      string  `json:"farmId,omitempty"`
	Acres       float64 `json:"acres,omitempty"`
	CenterPoint Point   `json:"centerPoint"`
}

// fieldsPage represents one page of the field listing.
type fieldsPage struct {
	Fields []Field `json:"fields"`
}

// List returns every field on the account, following pagination links until
// the last page.
func (s *FieldsService) List(ctx context.Context) ([]Field, error) {
	var fields []Field
	path := "/v2/fields"
	var query url.Values
	for {
		body, err := s.client.get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		var page fieldsPage
		if err := decode(body, &page); err != nil {
			return nil, err
		}
		fields = append(fields, page.Fields...)

		next := gjson.GetBytes(body, "_links.next.href").String()
		if next == "" {
			return fields, nil
		}
		path, query, err = splitLink(next)
		if err != nil {
			return nil, err
		}
	}
}

// Get returns a single field by ID.
func (s *FieldsService) Get(ctx context.Context, fieldID string) (*Field, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	var f Field
	if err := s.client.getJSON(ctx, "/v2/fields/"+fieldID, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create registers a field. A missing ID gets a generated "field-" name so
// callers can register locations without inventing identifiers.
func (s *FieldsService) Create(ctx context.Context, field Field) (*Field, error) {
	if field.ID == "" {
		field.ID = "field-" + uuid.NewString()[:8]
	}
	if err := validFieldID(field.ID); err != nil {
		return nil, err
	}
	if err := validLatLon(field.CenterPoint.Latitude, field.CenterPoint.Longitude); err != nil {
		return nil, err
	}

	body, err := s.client.Do(ctx, &Request{Method: http.MethodPost, Path: "/v2/fields", Body: field})
	if err != nil {
		return nil, err
	}
	var created Field
	if err := decode(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateOp is one mutation inside a PATCH request.
type UpdateOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// UpdateName builds the patch op that renames a field or planting property
// at /name.
func UpdateName(name string) UpdateOp {
	return UpdateOp{Op: "update", Path: "/name", Value: name}
}

// UpdateFarmID builds the patch op that moves a field to another farm.
func UpdateFarmID(farmID string) UpdateOp {
	return UpdateOp{Op: "update", Path: "/farmId", Value: farmID}
}

// Update applies patch operations to a field and returns its new state.
func (s *FieldsService) Update(ctx context.Context, fieldID string, ops ...UpdateOp) (*Field, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, &ValidationError{Param: "ops", Reason: "at least one update operation required"}
	}
	body, err := s.client.Do(ctx, &Request{Method: http.MethodPatch, Path: "/v2/fields/" + fieldID, Body: ops})
	if err != nil {
		return nil, err
	}
	var updated Field
	if err := decode(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a field registration.
func (s *FieldsService) Delete(ctx context.Context, fieldID string) error {
	if err := validFieldID(fieldID); err != nil {
		return err
	}
	_, err := s.client.Do(ctx, &Request{Method: http.MethodDelete, Path: "/v2/fields/" + fieldID})
	return err
}

// splitLink splits a pagination href into the path and query of the next
// page request.
func splitLink(href string) (string, url.Values, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", nil, &ResponseError{Reason: fmt.Sprintf("bad pagination link %q", href), Err: err}
	}
	return u.Path, u.Query(), nil
}
