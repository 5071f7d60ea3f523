package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/config"
	"github.com/MwendaMugendi/awhere-go/internal/credentials"
	"github.com/MwendaMugendi/awhere-go/internal/ingest"
	"github.com/MwendaMugendi/awhere-go/internal/logger"
	"github.com/MwendaMugendi/awhere-go/internal/render"
	"github.com/MwendaMugendi/awhere-go/internal/store"
	"github.com/MwendaMugendi/awhere-go/internal/watch"
)

func runPull(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("pull", flag.ContinueOnError)
	field := fs.String("field", "", "sync a single field")
	since := fs.String("since", "", "resync from this date (YYYY-MM-DD) instead of resuming")
	vacuum := fs.Bool("vacuum", false, "compact the archive after syncing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var fieldIDs []string
	switch {
	case *field != "":
		fieldIDs = []string{*field}
	case len(cfg.FieldIDs) > 0:
		fieldIDs = cfg.FieldIDs
	default:
		fields, err := client.Fields.List(ctx)
		if err != nil {
			return err
		}
		for _, f := range fields {
			fieldIDs = append(fieldIDs, f.ID)
		}
	}
	if len(fieldIDs) == 0 {
		return errors.New("no fields to sync: register one or set AWHERE_FIELDS")
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Debug("opened archive", "path", st.Path())

	results := ingest.New(client, st).SyncAll(ctx, fieldIDs, *since)

	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("%-24s %s\n", r.FieldID, render.ErrorTextStyle.Render(r.Err.Error()))
		case r.RowsWritten == 0:
			line := fmt.Sprintf("%-24s up to date", r.FieldID)
			if run, err := st.LastSync(r.FieldID); err == nil && run != nil {
				line += render.HelpStyle.Render("  (last sync " + run.SyncedAt.Format("2006-01-02 15:04") + ")")
			}
			fmt.Println(line)
		default:
			fmt.Printf("%-24s %s to %s, %d values\n", r.FieldID, r.Start, r.End, r.RowsWritten)
		}
	}

	if *vacuum {
		if err := st.Vacuum(); err != nil {
			return fmt.Errorf("failed to compact archive: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d fields failed to sync", failed, len(results))
	}
	return nil
}

// normsColumn maps an archived observation metric to the matching column of
// the long-term normals endpoint.
var normsColumn = map[string]string{
	"temperatures.max":     "maxTemp.average",
	"temperatures.min":     "minTemp.average",
	"precipitation.amount": "precipitation.average",
	"solar.amount":         "solar.average",
	"relativeHumidity.max": "maxHumidity.average",
	"relativeHumidity.min": "minHumidity.average",
}

func runChart(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	metric := fs.String("metric", "temperatures.max", "archived metric to plot")
	days := fs.Int("days", 30, "trailing window length")
	norms := fs.Bool("norms", false, "overlay the ten year normal")
	width := fs.Int("width", 60, "chart width in columns")
	height := fs.Int("height", 10, "chart height in rows")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	since := time.Now().UTC().AddDate(0, 0, -*days).Format("2006-01-02")
	points, err := st.Series(tgt.fieldID, *metric, since)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		if metrics, err := st.Metrics(tgt.fieldID); err == nil && len(metrics) > 0 {
			return fmt.Errorf("no archived %s for %s, archived metrics: %s",
				*metric, tgt.fieldID, strings.Join(metrics, ", "))
		}
		if fields, err := st.Fields(); err == nil && len(fields) > 0 {
			return fmt.Errorf("no archive for %s, archived fields: %s",
				tgt.fieldID, strings.Join(fields, ", "))
		}
		return fmt.Errorf("no archived %s for %s: run \"awhere pull\" first", *metric, tgt.fieldID)
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	first, last := points[0].Date, points[len(points)-1].Date
	caption := fmt.Sprintf("%s %s (%s to %s)", tgt.fieldID, *metric, first, last)

	if !*norms {
		fmt.Println(render.LineChart(values, *width, *height, caption))
		return nil
	}

	column, ok := normsColumn[*metric]
	if !ok {
		return fmt.Errorf("no long-term normal mapped for %s", *metric)
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	endYear := time.Now().Year() - 1
	startYear := endYear - 9
	normsTable, err := client.Weather.Norms(ctx, tgt.fieldID,
		monthDay(first), monthDay(last), startYear, endYear, awhere.OmitLeapDay())
	if err != nil {
		return err
	}

	fmt.Println(render.OverlayChart(values, normsTable.Floats(column), *width, *height, caption))
	fmt.Println(render.Legend([]render.LegendItem{
		{Label: *metric, Color: render.ObservedColor},
		{Label: fmt.Sprintf("%d-%d normal", startYear, endYear), Color: render.NormalColor},
	}))
	return nil
}

// monthDay trims a YYYY-MM-DD date to its MM-DD part.
func monthDay(date string) string {
	if len(date) < 10 {
		return date
	}
	return date[5:10]
}

func runWatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	interval := fs.Duration("interval", cfg.RefreshInterval, "refresh cadence")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval < time.Minute {
		return errors.New("-interval must be at least 1m")
	}

	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Hot-reload rotated credentials while the dashboard runs. Env-only
	// setups have no file to watch.
	var creds *credentials.Service
	if _, err := os.Stat(cfg.CredentialsPath); err == nil {
		svc, err := credentials.New(cfg.CredentialsPath)
		if err != nil {
			logger.Warn("credentials watch disabled", "error", err)
		} else {
			creds = svc
			defer svc.Close()
		}
	}

	// The dashboard owns the terminal from here on.
	logger.Quiet()
	return watch.Run(client, tgt.fieldID, *interval, cfg.FrostThreshold, creds)
}
