package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/formatter"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/pipeline"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/utils"
)

func buildBatch(results []pipeline.TripResult, eval pipeline.Evaluation, conds map[itinerary.Condition]int, agencyID, runID string, now time.Time) formatter.Batch {
	b := formatter.Batch{
		GeneratedAt: utils.Iso8601(now),
		AgencyID:    agencyID,
		RunID:       runID,
		Trips:       []formatter.Document{},
	}
	for _, r := range results {
		if r.Err != nil {
			b.Failed = append(b.Failed, formatter.FailedTrip{TripID: r.TripID, Error: r.Err.Error()})
			continue
		}
		b.Trips = append(b.Trips, formatter.BuildDocument(r.Itinerary, agencyID, now))
	}
	if len(conds) > 0 {
		b.Conditions = make(map[string]int, len(conds))
		for c, n := range conds {
			b.Conditions[string(c)] = n
		}
	}
	if eval.Labelled > 0 {
		b.Evaluation = &formatter.EvaluationDoc{
			Labelled:      eval.Labelled,
			Transit:       eval.Transit,
			Agreeing:      eval.Agreeing,
			AgreementRate: eval.AgreementRate(),
		}
	}
	return b
}

// segmentFilter selects segments by mode, route and stop reference.
type segmentFilter struct {
	mode, route, stop string
}

func (f segmentFilter) active() bool {
	return f.mode != "" || f.route != "" || f.stop != ""
}

// apply filters every trip's segments and drops trips left without any.
func (f segmentFilter) apply(b formatter.Batch) formatter.Batch {
	if !f.active() {
		return b
	}
	trips := make([]formatter.Document, 0, len(b.Trips))
	for _, doc := range b.Trips {
		doc = formatter.FilterSegments(doc, f.mode, f.route, f.stop)
		if len(doc.Segments) > 0 {
			trips = append(trips, doc)
		}
	}
	b.Trips = trips
	return b
}

// writeBatch writes b to path as JSON, or GPX when path ends in .gpx.
// An empty path or "-" writes JSON to w.
func writeBatch(path string, w io.Writer, b formatter.Batch) error {
	rb := formatter.NewResponseBuilder()
	if path == "" || path == "-" {
		return rb.WriteBatchJSON(w, b)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".gpx") {
		_, err = f.Write(rb.BuildGPX(b.Trips))
	} else {
		err = rb.WriteBatchJSON(f, b)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
