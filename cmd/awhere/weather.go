package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/config"
	"github.com/MwendaMugendi/awhere-go/internal/render"
)

func runObservations(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("obs", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	loc := fs.String("loc", "", "lat,lon coordinate instead of a field")
	dateRange := fs.String("range", "", "start,end dates (YYYY-MM-DD)")
	days := fs.Int("days", 7, "trailing window when -range is not given")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tgt, err := resolveTarget(*field, *loc, cfg)
	if err != nil {
		return err
	}
	start, end, err := pastRange(*dateRange, *days, time.Now().UTC())
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var tbl *awhere.Table
	if tgt.isLoc {
		tbl, err = client.Weather.ObservationsLatLon(ctx, tgt.lat, tgt.lon, start, end)
	} else {
		tbl, err = client.Weather.Observations(ctx, tgt.fieldID, start, end)
	}
	if err != nil {
		return err
	}
	return printTable(tbl, *asJSON)
}

func runForecast(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	loc := fs.String("loc", "", "lat,lon coordinate instead of a field")
	dateRange := fs.String("range", "", "start,end dates (YYYY-MM-DD)")
	days := fs.Int("days", 5, "window length when -range is not given")
	blocks := fs.Int("blocks", 0, "hours per forecast block (1, 2, 3, 4, 6, 8, 12 or 24)")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tgt, err := resolveTarget(*field, *loc, cfg)
	if err != nil {
		return err
	}
	start, end, err := futureRange(*dateRange, *days, time.Now().UTC())
	if err != nil {
		return err
	}

	var opts []awhere.QueryOption
	if *blocks != 0 {
		opts = append(opts, awhere.BlockSize(*blocks))
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var tbl *awhere.Table
	if tgt.isLoc {
		tbl, err = client.Weather.ForecastsLatLon(ctx, tgt.lat, tgt.lon, start, end, opts...)
	} else {
		tbl, err = client.Weather.Forecasts(ctx, tgt.fieldID, start, end, opts...)
	}
	if err != nil {
		return err
	}
	return printTable(tbl, *asJSON)
}

// normsQuery holds the parsed arguments shared by the weather and
// agronomic normals subcommands.
type normsQuery struct {
	tgt                target
	mdStart, mdEnd     string
	startYear, endYear int
	opts               []awhere.QueryOption
	asJSON             bool
}

func parseNormsArgs(name string, cfg *config.Config, args []string) (*normsQuery, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	loc := fs.String("loc", "", "lat,lon coordinate instead of a field")
	window := fs.String("window", "", "month-day window start,end (MM-DD,MM-DD)")
	years := fs.String("years", "", "year span start,end (at least three years)")
	exclude := fs.String("exclude-years", "", "comma-separated years to leave out")
	keepLeap := fs.Bool("keep-leap", false, "keep February 29 rows")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *window == "" || *years == "" {
		return nil, fmt.Errorf("%s needs -window and -years", name)
	}

	q := &normsQuery{asJSON: *asJSON}
	var err error
	if q.tgt, err = resolveTarget(*field, *loc, cfg); err != nil {
		return nil, err
	}
	if q.mdStart, q.mdEnd, err = splitPair("window", *window); err != nil {
		return nil, err
	}
	if q.startYear, q.endYear, err = parseYears(*years); err != nil {
		return nil, err
	}
	excludeList, err := parseYearList(*exclude)
	if err != nil {
		return nil, err
	}

	if !*keepLeap {
		q.opts = append(q.opts, awhere.OmitLeapDay())
	}
	if len(excludeList) > 0 {
		q.opts = append(q.opts, awhere.ExcludeYears(excludeList...))
	}
	return q, nil
}

func runNorms(ctx context.Context, cfg *config.Config, args []string) error {
	q, err := parseNormsArgs("norms", cfg, args)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var tbl *awhere.Table
	if q.tgt.isLoc {
		tbl, err = client.Weather.NormsLatLon(ctx, q.tgt.lat, q.tgt.lon, q.mdStart, q.mdEnd, q.startYear, q.endYear, q.opts...)
	} else {
		tbl, err = client.Weather.Norms(ctx, q.tgt.fieldID, q.mdStart, q.mdEnd, q.startYear, q.endYear, q.opts...)
	}
	if err != nil {
		return err
	}
	return printTable(tbl, q.asJSON)
}

func runAgronomicNorms(ctx context.Context, cfg *config.Config, args []string) error {
	q, err := parseNormsArgs("agnorms", cfg, args)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var tbl *awhere.Table
	if q.tgt.isLoc {
		tbl, err = client.Agronomics.NormsLatLon(ctx, q.tgt.lat, q.tgt.lon, q.mdStart, q.mdEnd, q.startYear, q.endYear, q.opts...)
	} else {
		tbl, err = client.Agronomics.Norms(ctx, q.tgt.fieldID, q.mdStart, q.mdEnd, q.startYear, q.endYear, q.opts...)
	}
	if err != nil {
		return err
	}
	return printTable(tbl, q.asJSON)
}

func runAgronomicValues(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("agvalues", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	loc := fs.String("loc", "", "lat,lon coordinate instead of a field")
	dateRange := fs.String("range", "", "start,end dates (YYYY-MM-DD)")
	days := fs.Int("days", 7, "trailing window when -range is not given")
	gddMethod := fs.String("gdd-method", "", `growing degree day formula ("standard", "modifiedstandard", "min-temp-cap", "min-temp-constant")`)
	gddBase := fs.String("gdd-base", "", "growing degree day base temperature")
	gddMin := fs.String("gdd-min", "", "lower temperature boundary")
	gddMax := fs.String("gdd-max", "", "upper temperature boundary")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tgt, err := resolveTarget(*field, *loc, cfg)
	if err != nil {
		return err
	}
	start, end, err := pastRange(*dateRange, *days, time.Now().UTC())
	if err != nil {
		return err
	}
	opts, err := gddOptions(*gddMethod, *gddBase, *gddMin, *gddMax)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var tbl *awhere.Table
	if tgt.isLoc {
		tbl, err = client.Agronomics.ValuesLatLon(ctx, tgt.lat, tgt.lon, start, end, opts...)
	} else {
		tbl, err = client.Agronomics.Values(ctx, tgt.fieldID, start, end, opts...)
	}
	if err != nil {
		return err
	}
	return printTable(tbl, *asJSON)
}

func gddOptions(method, base, lower, upper string) ([]awhere.QueryOption, error) {
	var opts []awhere.QueryOption
	if method != "" {
		opts = append(opts, awhere.GDDMethod(method))
	}
	if base != "" {
		v, err := strconv.ParseFloat(base, 64)
		if err != nil {
			return nil, fmt.Errorf("bad -gdd-base %q", base)
		}
		opts = append(opts, awhere.GDDBaseTemp(v))
	}
	switch {
	case lower == "" && upper == "":
	case lower != "" && upper != "":
		lo, err := strconv.ParseFloat(lower, 64)
		if err != nil {
			return nil, fmt.Errorf("bad -gdd-min %q", lower)
		}
		hi, err := strconv.ParseFloat(upper, 64)
		if err != nil {
			return nil, fmt.Errorf("bad -gdd-max %q", upper)
		}
		opts = append(opts, awhere.GDDBoundaries(lo, hi))
	default:
		return nil, errors.New("-gdd-min and -gdd-max must be set together")
	}
	return opts, nil
}

func runCurrent(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("current", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	loc := fs.String("loc", "", "lat,lon coordinate instead of a field")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tgt, err := resolveTarget(*field, *loc, cfg)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var cc *awhere.CurrentConditions
	if tgt.isLoc {
		cc, err = client.Weather.CurrentConditionsLatLon(ctx, tgt.lat, tgt.lon)
	} else {
		cc, err = client.Weather.CurrentConditions(ctx, tgt.fieldID)
	}
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(cc)
	}
	fmt.Println(render.Conditions(cc, cfg.FrostThreshold))
	return nil
}
