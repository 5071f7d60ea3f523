// Package ingest syncs field observations from the API into the local archive.
package ingest

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/logger"
	"github.com/MwendaMugendi/awhere-go/internal/store"
)

const (
	// maxConcurrentFields bounds parallel API pulls.
	maxConcurrentFields = 5
	// defaultBackfillDays seeds an empty archive.
	defaultBackfillDays = 30

	dayFormat = "2006-01-02"
)

// Result reports one field's sync outcome.
type Result struct {
	FieldID     string
	Start       string
	End         string
	RowsWritten int
	Err         error
}

// Syncer pulls daily observations into the archive.
type Syncer struct {
	client *awhere.Client
	store  *store.Store
	now    func() time.Time
}

// New creates a syncer over a client and an archive.
func New(client *awhere.Client, st *store.Store) *Syncer {
	return &Syncer{
		client: client,
		store:  st,
		now:    time.Now,
	}
}

// SyncField pulls observations for one field from since (inclusive) through
// yesterday and upserts them. An empty since resumes after the newest
// archived day, backfilling 30 days when the archive has none. Observations
// cover completed days only; today belongs to current conditions.
func (s *Syncer) SyncField(ctx context.Context, fieldID, since string) Result {
	res := Result{FieldID: fieldID}

	end := s.now().AddDate(0, 0, -1).Format(dayFormat)
	start := since
	if start == "" {
		latest, err := s.store.LatestDate(fieldID)
		if err != nil {
			res.Err = err
			return res
		}
		if latest == "" {
			start = s.now().AddDate(0, 0, -defaultBackfillDays).Format(dayFormat)
		} else {
			day, err := time.Parse(dayFormat, latest)
			if err != nil {
				res.Err = fmt.Errorf("bad archived date %q: %w", latest, err)
				return res
			}
			start = day.AddDate(0, 0, 1).Format(dayFormat)
		}
	}
	res.Start, res.End = start, end

	// Archive already current.
	if start > end {
		return res
	}

	table, err := s.client.Weather.Observations(ctx, fieldID, start, end)
	if err != nil {
		res.Err = err
		_ = s.store.RecordSync(fieldID, 0, err)
		return res
	}

	written, err := s.store.UpsertObservations(fieldID, "date", table)
	if err != nil {
		res.Err = err
		_ = s.store.RecordSync(fieldID, 0, err)
		return res
	}

	res.RowsWritten = written
	_ = s.store.RecordSync(fieldID, written, nil)
	return res
}

// SyncAll syncs every field, at most maxConcurrentFields at a time. One
// field's failure does not stop the others; results line up with fieldIDs.
func (s *Syncer) SyncAll(ctx context.Context, fieldIDs []string, since string) []Result {
	results := make([]Result, len(fieldIDs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFields)

	for i, fieldID := range fieldIDs {
		g.Go(func() error {
			results[i] = s.SyncField(ctx, fieldID, since)
			if results[i].Err != nil {
				logger.Error("failed to sync field", "field", fieldID, "error", results[i].Err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
