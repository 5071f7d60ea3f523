package awhere

import (
	"context"
	"fmt"
	"strconv"
)

// WeatherService reads observed, forecast and long-term normal conditions
// for fields and arbitrary coordinates.
type WeatherService service

// Measure is a numeric reading paired with its unit.
type Measure struct {
	Amount float64 `json:"amount"`
	Units  string  `json:"units,omitempty"`
}

// Wind is a wind reading with direction.
type Wind struct {
	Amount    float64 `json:"amount"`
	Units     string  `json:"units,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Bearing   float64 `json:"bearing,omitempty"`
}

// Location identifies where a reading was taken.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	FieldID   string  `json:"fieldId,omitempty"`
}

// CurrentConditions is the latest station-blended weather snapshot for a
// location.
type CurrentConditions struct {
	DateTime         string   `json:"dateTime"`
	Location         Location `json:"location"`
	ConditionsCode   string   `json:"conditionsCode,omitempty"`
	ConditionsText   string   `json:"conditionsText,omitempty"`
	Temperature      *Measure `json:"temperature,omitempty"`
	Precipitation    *Measure `json:"precipitation,omitempty"`
	Solar            *Measure `json:"solar,omitempty"`
	RelativeHumidity *Measure `json:"relativeHumidity,omitempty"`
	Wind             *Wind    `json:"wind,omitempty"`
}

// forecastBlocksPath pulls the per-block forecast entries out of their
// per-day wrappers so each block becomes one row.
const forecastBlocksPath = "forecasts.#.forecast|@flatten"

func fieldWeatherPath(fieldID string) string {
	return "/v2/weather/fields/" + fieldID
}

func locationWeatherPath(lat, lon float64) string {
	return "/v2/weather/locations/" + formatCoord(lat) + "," + formatCoord(lon)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Observations returns daily observed conditions over an inclusive date
// range as a table keyed by the "date" column.
func (s *WeatherService) Observations(ctx context.Context, fieldID, startDate, endDate string) (*Table, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.observations(ctx, fieldWeatherPath(fieldID), startDate, endDate)
}

// ObservationsLatLon is Observations for an arbitrary coordinate.
func (s *WeatherService) ObservationsLatLon(ctx context.Context, lat, lon float64, startDate, endDate string) (*Table, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.observations(ctx, locationWeatherPath(lat, lon), startDate, endDate)
}

func (s *WeatherService) observations(ctx context.Context, base, startDate, endDate string) (*Table, error) {
	if err := validDayRange(startDate, endDate); err != nil {
		return nil, err
	}
	body, err := s.client.get(ctx, fmt.Sprintf("%s/observations/%s,%s", base, startDate, endDate), nil)
	if err != nil {
		return nil, err
	}
	return ParseTable(body, "observations")
}

// Forecasts returns forecast conditions over a date range. Hours are
// grouped with BlockSize; each block becomes one row.
func (s *WeatherService) Forecasts(ctx context.Context, fieldID, startDate, endDate string, opts ...QueryOption) (*Table, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.forecasts(ctx, fieldWeatherPath(fieldID), startDate, endDate, opts)
}

// ForecastsLatLon is Forecasts for an arbitrary coordinate.
func (s *WeatherService) ForecastsLatLon(ctx context.Context, lat, lon float64, startDate, endDate string, opts ...QueryOption) (*Table, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.forecasts(ctx, locationWeatherPath(lat, lon), startDate, endDate, opts)
}

func (s *WeatherService) forecasts(ctx context.Context, base, startDate, endDate string, opts []QueryOption) (*Table, error) {
	if err := validDayRange(startDate, endDate); err != nil {
		return nil, err
	}
	q := newQueryConfig(opts)
	if err := q.validate(); err != nil {
		return nil, err
	}
	body, err := s.client.get(ctx, fmt.Sprintf("%s/forecasts/%s,%s", base, startDate, endDate), q.values())
	if err != nil {
		return nil, err
	}
	return ParseTable(body, forecastBlocksPath)
}

// Norms returns long-term daily normals for a month-day window averaged
// over a span of years, as a table keyed by the "day" column. The span must
// cover at least three years.
func (s *WeatherService) Norms(ctx context.Context, fieldID, monthDayStart, monthDayEnd string, startYear, endYear int, opts ...QueryOption) (*Table, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.norms(ctx, fieldWeatherPath(fieldID), monthDayStart, monthDayEnd, startYear, endYear, opts)
}

// NormsLatLon is Norms for an arbitrary coordinate.
func (s *WeatherService) NormsLatLon(ctx context.Context, lat, lon float64, monthDayStart, monthDayEnd string, startYear, endYear int, opts ...QueryOption) (*Table, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.norms(ctx, locationWeatherPath(lat, lon), monthDayStart, monthDayEnd, startYear, endYear, opts)
}

func (s *WeatherService) norms(ctx context.Context, base, mdStart, mdEnd string, startYear, endYear int, opts []QueryOption) (*Table, error) {
	if err := validMonthDayRange(mdStart, mdEnd); err != nil {
		return nil, err
	}
	if err := validYearRange(startYear, endYear); err != nil {
		return nil, err
	}
	q := newQueryConfig(opts)
	if err := q.validate(); err != nil {
		return nil, err
	}
	if err := validExcludeYears(q.excludeYears, startYear, endYear); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/norms/%s,%s/years/%d,%d", base, mdStart, mdEnd, startYear, endYear)
	body, err := s.client.get(ctx, path, q.values())
	if err != nil {
		return nil, err
	}
	return ParseTable(body, "norms", q.tableOptions("day")...)
}

// CurrentConditions returns the latest conditions snapshot for a field.
func (s *WeatherService) CurrentConditions(ctx context.Context, fieldID string) (*CurrentConditions, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.currentConditions(ctx, fieldWeatherPath(fieldID))
}

// CurrentConditionsLatLon is CurrentConditions for an arbitrary coordinate.
func (s *WeatherService) CurrentConditionsLatLon(ctx context.Context, lat, lon float64) (*CurrentConditions, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.currentConditions(ctx, locationWeatherPath(lat, lon))
}

func (s *WeatherService) currentConditions(ctx context.Context, base string) (*CurrentConditions, error) {
	var cc CurrentConditions
	if err := s.client.getJSON(ctx, base+"/currentconditions", nil, &cc); err != nil {
		return nil, err
	}
	return &cc, nil
}
