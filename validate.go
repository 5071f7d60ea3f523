package awhere

import (
	"fmt"
	"strings"
	"time"
)

const (
	dayFormat      = "2006-01-02"
	monthDayFormat = "01-02"
)

// validFieldID checks the syntactic shape of a field ID before it is
// spliced into a URL path.
func validFieldID(id string) error {
	switch {
	case id == "":
		return &ValidationError{Param: "fieldId", Reason: "must not be empty"}
	case len(id) > 64:
		return &ValidationError{Param: "fieldId", Reason: "must be at most 64 characters"}
	case strings.ContainsAny(id, " \t\n/"):
		return &ValidationError{Param: "fieldId", Reason: "must not contain whitespace or slashes"}
	}
	return nil
}

// validDay checks a calendar date in YYYY-MM-DD form.
func validDay(param, s string) error {
	if _, err := time.Parse(dayFormat, s); err != nil {
		return &ValidationError{Param: param, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return nil
}

// validDayRange checks an inclusive date range.
func validDayRange(start, end string) error {
	s, err := time.Parse(dayFormat, start)
	if err != nil {
		return &ValidationError{Param: "startDate", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", start)}
	}
	e, err := time.Parse(dayFormat, end)
	if err != nil {
		return &ValidationError{Param: "endDate", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", end)}
	}
	if e.Before(s) {
		return &ValidationError{Param: "endDate", Reason: "must not be before startDate"}
	}
	return nil
}

// validMonthDay checks a month-day in MM-DD form. time.Parse pins yearless
// layouts to year zero, a leap year, so "02-29" parses clean.
func validMonthDay(param, s string) error {
	if _, err := time.Parse(monthDayFormat, s); err != nil {
		return &ValidationError{Param: param, Reason: fmt.Sprintf("%q is not a MM-DD month-day", s)}
	}
	return nil
}

// validMonthDayRange checks both ends of a norms window. Windows may wrap
// the turn of the year, so no ordering is imposed.
func validMonthDayRange(start, end string) error {
	if err := validMonthDay("monthDayStart", start); err != nil {
		return err
	}
	return validMonthDay("monthDayEnd", end)
}

// validYearRange checks the span of years a normal is averaged over. A
// meaningful normal needs at least three years of history.
func validYearRange(start, end int) error {
	switch {
	case start > end:
		return &ValidationError{Param: "years", Reason: fmt.Sprintf("start year %d is after end year %d", start, end)}
	case end > time.Now().Year():
		return &ValidationError{Param: "years", Reason: fmt.Sprintf("end year %d is in the future", end)}
	case end-start+1 < 3:
		return &ValidationError{Param: "years", Reason: "span must cover at least three years"}
	}
	return nil
}

// validExcludeYears checks that every excluded year falls inside the norms
// span.
func validExcludeYears(years []int, start, end int) error {
	for _, y := range years {
		if y < start || y > end {
			return &ValidationError{Param: "excludeYears", Reason: fmt.Sprintf("%d is outside the %d-%d span", y, start, end)}
		}
	}
	return nil
}

// blockSizes are the forecast block lengths the API accepts. Each must
// divide a 24-hour day evenly.
var blockSizes = map[int]bool{1: true, 2: true, 3: true, 4: true, 6: true, 8: true, 12: true, 24: true}

func validBlockSize(n int) error {
	if !blockSizes[n] {
		return &ValidationError{Param: "blockSize", Reason: fmt.Sprintf("%d does not divide a 24-hour day", n)}
	}
	return nil
}

// validLatLon checks geographic coordinates.
func validLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return &ValidationError{Param: "latitude", Reason: fmt.Sprintf("%g is outside [-90, 90]", lat)}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{Param: "longitude", Reason: fmt.Sprintf("%g is outside [-180, 180]", lon)}
	}
	return nil
}

// gddMethods are the growing degree day formulas the platform implements.
var gddMethods = map[string]bool{
	"standard":          true,
	"modifiedstandard":  true,
	"min-temp-cap":      true,
	"min-temp-constant": true,
}

func validGDDMethod(m string) error {
	if !gddMethods[m] {
		return &ValidationError{Param: "gddMethod", Reason: fmt.Sprintf("unknown method %q", m)}
	}
	return nil
}
