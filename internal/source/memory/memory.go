// Package memory implements source.DonationSource over records held in memory.
// It backs the demo mode (seeded from a CSV export) and tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"donations/internal/core"
	"donations/internal/importer"
	"donations/internal/source"
)

type Store struct {
	records []core.DonationRecord
}

var _ source.DonationSource = (*Store)(nil)

// New copies records; the store never mutates after construction so it needs
// no locking.
func New(records []core.DonationRecord) *Store {
	return &Store{records: append([]core.DonationRecord(nil), records...)}
}

// NewFromCSV loads a dataset export. Rows the importer rejects are reported
// on logger and left out.
func NewFromCSV(path string, logger *slog.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	res, err := importer.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(res.Skipped) > 0 {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Skipped unusable dataset rows", "path", path, "skipped", len(res.Skipped), "loaded", len(res.Records))
		for _, rowErr := range res.Skipped {
			logger.Debug("Skipped dataset row", "path", path, "line", rowErr.Line, "error", rowErr.Err)
		}
	}
	return New(res.Records), nil
}

func (s *Store) AggregateTotals(_ context.Context) ([]core.AggregateRow, error) {
	index := map[string]int{}
	var rows []core.AggregateRow
	for _, r := range s.records {
		i, ok := index[r.School]
		if !ok {
			i = len(rows)
			index[r.School] = i
			rows = append(rows, core.AggregateRow{School: r.School})
		}
		rows[i].Total += r.Amount
	}
	source.SortAggregates(rows)
	return rows, nil
}

func (s *Store) Timeseries(_ context.Context, school string) ([]core.DonationRecord, error) {
	out, _ := source.ShapeTimeseries(s.bySchool(school))
	return out, nil
}

func (s *Store) Geo(_ context.Context, school string) ([]core.DonationRecord, error) {
	return source.FilterGeo(s.bySchool(school)), nil
}

func (s *Store) bySchool(school string) []core.DonationRecord {
	var out []core.DonationRecord
	for _, r := range s.records {
		if r.School == school {
			out = append(out, r)
		}
	}
	return out
}
