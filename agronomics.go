package awhere

import (
	"context"
	"fmt"
)

// AgronomicsService reads growing degree days, potential evapotranspiration
// and their long-term normals.
type AgronomicsService service

func fieldAgronomicsPath(fieldID string) string {
	return "/v2/agronomics/fields/" + fieldID
}

func locationAgronomicsPath(lat, lon float64) string {
	return "/v2/agronomics/locations/" + formatCoord(lat) + "," + formatCoord(lon)
}

// Values returns daily agronomic values (GDD, PET, P/PET and their
// accumulations) over a date range, keyed by the "date" column. GDD math is
// tuned with the GDD query options.
func (s *AgronomicsService) Values(ctx context.Context, fieldID, startDate, endDate string, opts ...QueryOption) (*Table, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.values(ctx, fieldAgronomicsPath(fieldID), startDate, endDate, opts)
}

// ValuesLatLon is Values for an arbitrary coordinate.
func (s *AgronomicsService) ValuesLatLon(ctx context.Context, lat, lon float64, startDate, endDate string, opts ...QueryOption) (*Table, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.values(ctx, locationAgronomicsPath(lat, lon), startDate, endDate, opts)
}

func (s *AgronomicsService) values(ctx context.Context, base, startDate, endDate string, opts []QueryOption) (*Table, error) {
	if err := validDayRange(startDate, endDate); err != nil {
		return nil, err
	}
	q := newQueryConfig(opts)
	if err := q.validate(); err != nil {
		return nil, err
	}
	body, err := s.client.get(ctx, fmt.Sprintf("%s/agronomicvalues/%s,%s", base, startDate, endDate), q.values())
	if err != nil {
		return nil, err
	}
	return ParseTable(body, "dailyValues")
}

// Norms returns long-term daily agronomic normals for a month-day window
// averaged over a span of years, keyed by the "day" column. The span must
// cover at least three years.
func (s *AgronomicsService) Norms(ctx context.Context, fieldID, monthDayStart, monthDayEnd string, startYear, endYear int, opts ...QueryOption) (*Table, error) {
	if err := validFieldID(fieldID); err != nil {
		return nil, err
	}
	return s.norms(ctx, fieldAgronomicsPath(fieldID), monthDayStart, monthDayEnd, startYear, endYear, opts)
}

// NormsLatLon is Norms for an arbitrary coordinate.
func (s *AgronomicsService) NormsLatLon(ctx context.Context, lat, lon float64, monthDayStart, monthDayEnd string, startYear, endYear int, opts ...QueryOption) (*Table, error) {
	if err := validLatLon(lat, lon); err != nil {
		return nil, err
	}
	return s.norms(ctx, locationAgronomicsPath(lat, lon), monthDayStart, monthDayEnd, startYear, endYear, opts)
}

func (s *AgronomicsService) norms(ctx context.Context, base, mdStart, mdEnd string, startYear, endYear int, opts []QueryOption) (*Table, error) {
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
	path := fmt.Sprintf("%s/agronomicnorms/%s,%s/years/%d,%d", base, mdStart, mdEnd, startYear, endYear)
	body, err := s.client.get(ctx, path, q.values())
	if err != nil {
		return nil, err
	}
	return ParseTable(body, "dailyAverages", q.tableOptions("day")...)
}
