package source

import (
	"slices"
	"strings"
	"time"

	"donations/internal/core"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
}

// ParseDate parses the gift received date as exported by the various dataset
// revisions. The zero time and false are returned for blank or unknown formats.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SortAggregates orders rows by total descending. Rows with equal totals keep
// their input order.
func SortAggregates(rows []core.AggregateRow) {
	slices.SortStableFunc(rows, func(a, b core.AggregateRow) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		return 0
	})
}

// ShapeTimeseries fills missing donor fields with core.Unknown, resolves dates
// and sorts by date ascending. Records whose date cannot be parsed are dropped
// since they have no place on a date axis; the number dropped is returned.
func ShapeTimeseries(in []core.DonationRecord) ([]core.DonationRecord, int) {
	out := make([]core.DonationRecord, 0, len(in))
	dropped := 0
	for _, r := range in {
		if r.Date.IsZero() {
			t, ok := ParseDate(r.RawDate)
			if !ok {
				dropped++
				continue
			}
			r.Date = t
		}
		r.Donor = orUnknown(r.Donor)
		r.DonorCountry = orUnknown(r.DonorCountry)
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b core.DonationRecord) int {
		return a.Date.Compare(b.Date)
	})
	return out, dropped
}

// FilterGeo keeps the records with valid coordinates. Dates are resolved when
// possible; hover text falls back to RawDate otherwise.
func FilterGeo(in []core.DonationRecord) []core.DonationRecord {
	out := make([]core.DonationRecord, 0, len(in))
	for _, r := range in {
		if !r.HasCoordinates() {
			continue
		}
		if r.Date.IsZero() {
			if t, ok := ParseDate(r.RawDate); ok {
				r.Date = t
			}
		}
		r.DonorCountry = orUnknown(r.DonorCountry)
		out = append(out, r)
	}
	return out
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return core.Unknown
	}
	return s
}
