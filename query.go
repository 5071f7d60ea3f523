package awhere

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryOption tunes an individual weather or agronomics query. Options that
// do not apply to an endpoint are ignored by it.
type QueryOption func(*queryConfig)

type queryConfig struct {
	blockSize    int
	excludeYears []int
	omitLeapDay  bool
	gddMethod    string
	gddBaseTemp  *float64
	gddMin       *float64
	gddMax       *float64
}

// BlockSize groups forecast hours into blocks of n hours. n must divide a
// 24-hour day; the API default is one-hour blocks.
func BlockSize(n int) QueryOption {
	return func(q *queryConfig) { q.blockSize = n }
}

// ExcludeYears leaves specific years out of a norms average, typically
// outlier seasons.
func ExcludeYears(years ...int) QueryOption {
	return func(q *queryConfig) { q.excludeYears = append(q.excludeYears, years...) }
}

// OmitLeapDay drops February 29 rows from a norms table so series align
// across leap and non-leap years.
func OmitLeapDay() QueryOption {
	return func(q *queryConfig) { q.omitLeapDay = true }
}

// GDDMethod selects the growing degree day formula: "standard",
// "modifiedstandard", "min-temp-cap" or "min-temp-constant".
func GDDMethod(method string) QueryOption {
	return func(q *queryConfig) { q.gddMethod = method }
}

// GDDBaseTemp sets the base temperature for growing degree day math.
func GDDBaseTemp(deg float64) QueryOption {
	return func(q *queryConfig) { q.gddBaseTemp = &deg }
}

// GDDBoundaries caps the min and max temperatures fed into growing degree
// day math.
func GDDBoundaries(minTemp, maxTemp float64) QueryOption {
	return func(q *queryConfig) {
		q.gddMin = &minTemp
		q.gddMax = &maxTemp
	}
}

func newQueryConfig(opts []QueryOption) *queryConfig {
	q := &queryConfig{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *queryConfig) validate() error {
	if q.blockSize != 0 {
		if err := validBlockSize(q.blockSize); err != nil {
			return err
		}
	}
	if q.gddMethod != "" {
		if err := validGDDMethod(q.gddMethod); err != nil {
			return err
		}
	}
	return nil
}

// values renders the config as query parameters understood by the API.
func (q *queryConfig) values() url.Values {
	v := url.Values{}
	if q.blockSize != 0 {
		v.Set("blockSize", strconv.Itoa(q.blockSize))
	}
	if len(q.excludeYears) > 0 {
		years := make([]string, len(q.excludeYears))
		for i, y := range q.excludeYears {
			years[i] = strconv.Itoa(y)
		}
		v.Set("excludeYears", strings.Join(years, ","))
	}
	if q.gddMethod != "" {
		v.Set("gddMethod", q.gddMethod)
	}
	if q.gddBaseTemp != nil {
		v.Set("gddBaseTemp", formatFloat(*q.gddBaseTemp))
	}
	if q.gddMin != nil {
		v.Set("gddMinBoundary", formatFloat(*q.gddMin))
	}
	if q.gddMax != nil {
		v.Set("gddMaxBoundary", formatFloat(*q.gddMax))
	}
	return v
}

// tableOptions translates the config into normalizer options for a norms
// table keyed by dateColumn.
func (q *queryConfig) tableOptions(dateColumn string) []TableOption {
	if q.omitLeapDay {
		return []TableOption{DropLeapDay(dateColumn)}
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
