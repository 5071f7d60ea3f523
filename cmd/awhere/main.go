// Package main is the aWhere command line client. It wraps the library's
// field, weather and agronomics endpoints, keeps a local observation
// archive, and runs the live field dashboard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/config"
	"github.com/MwendaMugendi/awhere-go/internal/credentials"
	"github.com/MwendaMugendi/awhere-go/internal/logger"
	"github.com/MwendaMugendi/awhere-go/internal/render"
	"github.com/MwendaMugendi/awhere-go/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Handle version and help before any configuration is required
	switch os.Args[1] {
	case "-v", "--version", "version":
		fmt.Println(version.Info())
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches one subcommand, separated for cleaner error handling.
func run(command string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "fields":
		return runFields(ctx, cfg, args)
	case "plantings":
		return runPlantings(ctx, cfg, args)
	case "obs":
		return runObservations(ctx, cfg, args)
	case "forecast":
		return runForecast(ctx, cfg, args)
	case "norms":
		return runNorms(ctx, cfg, args)
	case "agvalues":
		return runAgronomicValues(ctx, cfg, args)
	case "agnorms":
		return runAgronomicNorms(ctx, cfg, args)
	case "current":
		return runCurrent(ctx, cfg, args)
	case "pull":
		return runPull(ctx, cfg, args)
	case "chart":
		return runChart(ctx, cfg, args)
	case "watch":
		return runWatch(cfg, args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// newClient builds an API client from configuration, falling back to the
// credentials file when the environment carries no key pair.
func newClient(cfg *config.Config) (*awhere.Client, error) {
	key, secret := cfg.APIKey, cfg.APISecret
	if key == "" || secret == "" {
		creds, err := credentials.Load(cfg.CredentialsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials: %w", err)
		}
		if !creds.Valid() {
			return nil, fmt.Errorf("no API credentials: set AWHERE_API_KEY and AWHERE_API_SECRET or fill in %s", cfg.CredentialsPath)
		}
		key, secret = creds.APIKey, creds.APISecret
	}

	opts := []awhere.Option{
		awhere.WithLogger(logger.Logger),
		awhere.WithTimeout(cfg.RequestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, awhere.WithBaseURL(cfg.BaseURL))
	}
	return awhere.NewClient(key, secret, opts...)
}

// target is the location a weather or agronomics query runs against:
// either a registered field or a raw coordinate.
type target struct {
	fieldID string
	lat     float64
	lon     float64
	isLoc   bool
}

func resolveTarget(field, loc string, cfg *config.Config) (target, error) {
	if field != "" && loc != "" {
		return target{}, errors.New("pass -field or -loc, not both")
	}
	if loc != "" {
		lat, lon, err := parseLoc(loc)
		if err != nil {
			return target{}, err
		}
		return target{lat: lat, lon: lon, isLoc: true}, nil
	}
	if field == "" && len(cfg.FieldIDs) > 0 {
		field = cfg.FieldIDs[0]
	}
	if field == "" {
		return target{}, errors.New("a field is required: pass -field, -loc or set AWHERE_FIELDS")
	}
	return target{fieldID: field}, nil
}

func parseLoc(s string) (float64, float64, error) {
	a, b, err := splitPair("loc", s)
	if err != nil {
		return 0, 0, err
	}
	lat, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q", a)
	}
	lon, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q", b)
	}
	return lat, lon, nil
}

// splitPair splits a "start,end" flag value.
func splitPair(flagName, s string) (string, string, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("bad -%s %q, want two comma-separated values", flagName, s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// pastRange resolves a -range flag, defaulting to the trailing window of
// completed days ending yesterday.
func pastRange(rangeFlag string, days int, now time.Time) (string, string, error) {
	if rangeFlag != "" {
		return splitPair("range", rangeFlag)
	}
	end := now.AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -(days - 1))
	return start.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

// futureRange resolves a -range flag for forecasts, defaulting to the
// window starting today.
func futureRange(rangeFlag string, days int, now time.Time) (string, string, error) {
	if rangeFlag != "" {
		return splitPair("range", rangeFlag)
	}
	end := now.AddDate(0, 0, days-1)
	return now.Format("2006-01-02"), end.Format("2006-01-02"), nil
}

func parseYears(s string) (int, int, error) {
	a, b, err := splitPair("years", s)
	if err != nil {
		return 0, 0, err
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("bad start year %q", a)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("bad end year %q", b)
	}
	return start, end, nil
}

func parseYearList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("bad year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(t *awhere.Table, asJSON bool) error {
	if asJSON {
		return printJSON(t)
	}
	fmt.Println(render.Table(t, 0))
	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`awhere - aWhere agronomic weather platform client

Usage:
  awhere <command> [flags]

Commands:
  fields     Manage field locations (list|get|create|rename|delete)
  plantings  Manage plantings (list|current|create|delete)
  obs        Daily observed conditions for a field or coordinate
  forecast   Forecast conditions grouped into hour blocks
  norms      Long-term weather normals for a month-day window
  agvalues   Daily agronomic values (GDD, PET, accumulations)
  agnorms    Long-term agronomic normals
  current    Latest conditions snapshot
  pull       Sync daily observations into the local archive
  chart      Chart an archived metric, optionally against its normal
  watch      Live dashboard for one field
  version    Show version information

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Run "awhere <command> -h" for command flags.

Environment Variables:
  AWHERE_API_KEY / AWHERE_API_SECRET   API credentials
  AWHERE_BASE_URL                      Override the API host
  AWHERE_FIELDS                        Comma-separated default field ids
  AWHERE_REFRESH_INTERVAL              Watch refresh interval (default: 15m)
  AWHERE_FROST_THRESHOLD               Frost alert cutoff in C (default: 0)
  AWHERE_REQUEST_TIMEOUT               Per-request timeout (default: 30s)
  AWHERE_LOG_LEVEL                     debug, info, warn or error
  DATABASE_PATH                        SQLite archive path
  CREDENTIALS_PATH                     Credentials file path

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/awhere/.env
  - ~/.awhere/.env
  Settings may also live in ~/.config/awhere/config.yaml and the
  credentials file (default ~/.config/awhere/credentials.yaml).`)
}
