package awhere

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// PlantingsService records what is planted in each field and when.
type PlantingsService service

// Yield pairs a crop quantity with its unit of measure.
type Yield struct {
	Amount float64 `json:"amount,omitempty"`
	Units  string  `json:"units,omitempty"`
}

// Projections carries the grower's expected outcome for a planting.
type Projections struct {
	Yield       *Yield `json:"yield,omitempty"`
	HarvestDate string `json:"harvestDate,omitempty"`
}

// Planting ties a crop to a field with planting and harvest details.
type Planting struct {
	ID           int64        `json:"id,omitempty"`
	Crop         string       `json:"crop,omitempty"`
	Field        string       `json:"field,omitempty"`
	PlantingDate string       `json:"plantingDate,omitempty"`
	HarvestDate  string       `json:"harvestDate,omitempty"`
	Yield        *Yield       `json:"yield,omitempty"`
	Projections  *Projections `json:"projections,omitempty"`
}

func plantingsPath(fieldID string) string {
	return "/v2/agronomics/fields/" + fieldID + "/plantings"
}

// Create records a new planting in a field.
func (s *PlantingsService) Create(ctx context.Context, fieldID string, planting Planting) (*Planting, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	if planting.Crop == "" {
		return nil, &ValidationError{Param: "crop", Reason: "must not be empty"}
	}
	if planting.PlantingDate == "" {
		return nil, &ValidationError{Param: "plantingDate", Reason: "must not be empty"}
	}
	if err := validDay("plantingDate", planting.PlantingDate); err != nil {
		return nil, err
	}

	body, err := s.client.Do(ctx, &Request{Method: http.MethodPost, Path: plantingsPath(fieldID), Body: planting})
	if err != nil {
		return nil, err
	}
	var created Planting
	if err := decode(body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns the plantings recorded for a field, following pagination
// links until the last page.
func (s *PlantingsService) List(ctx context.Context, fieldID string) ([]Planting, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	var plantings []Planting
	path := plantingsPath(fieldID)
	var query url.Values
	for {
		body, err := s.client.get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		var page struct {
			Plantings []Planting `json:"plantings"`
		}
		if err := decode(body, &page); err != nil {
			return nil, err
		}
		plantings = append(plantings, page.Plantings...)

		next := gjson.GetBytes(body, "_links.next.href").String()
		if next == "" {
			return plantings, nil
		}
		path, query, err = splitLink(next)
		if err != nil {
			return nil, err
		}
	}
}

// Get returns one planting by its numeric ID.
func (s *PlantingsService) Get(ctx context.Context, fieldID string, plantingID int64) (*Planting, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	var p Planting
	if err := s.client.getJSON(ctx, fmt.Sprintf("%s/%d", plantingsPath(fieldID), plantingID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Current returns the most recent planting in a field.
func (s *PlantingsService) Current(ctx context.Context, fieldID string) (*Planting, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	var p Planting
	if err := s.client.getJSON(ctx, plantingsPath(fieldID)+"/current", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update applies patch operations to a planting and returns its new state.
func (s *PlantingsService) Update(ctx context.Context, fieldID string, plantingID int64, ops ...UpdateOp) (*Planting, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, &ValidationError{Param: "ops", Reason: "at least one update operation required"}
	}
	body, err := s.client.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("%s/%d", plantingsPath(fieldID), plantingID),
		Body:   ops,
	})
	if err != nil {
		return nil, err
	}
	var updated Planting
	if err := decode(body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a planting record.
func (s *PlantingsService) Delete(ctx context.Context, fieldID string, plantingID int64) error {
	if err := validFieldID(fieldID); err != nil {
		return err
	}
	_, err := s.client.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%d", plantingsPath(fieldID), plantingID),
	})
	return err
}
