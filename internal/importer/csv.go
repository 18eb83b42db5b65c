// Package importer reads dataset exports of the merged foreign-gift table.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"donations/internal/core"
)

// Column names accepted for each field, compared case-insensitively. The first
// name of each list is the column of the original donation_data table.
var columns = map[string][]string{
	"school":  {"institution_name", "school"},
	"donor":   {"giftor_name", "donor"},
	"country": {"country_of_giftor", "donor_country", "donor country"},
	"date":    {"foreign_gift_received_date", "date"},
	"amount":  {"foreign_gift_amount", "amount"},
	"score":   {"score"},
	"lat":     {"country_latitude", "latitude", "lat"},
	"lon":     {"country_longitude", "longitude", "lon"},
}

// RowError describes a skipped data row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

type Result struct {
	Records []core.DonationRecord
	Skipped []RowError
}

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrNotFinite     = errors.New("value is not finite")
	ErrScoreRange    = errors.New("score out of range")
)

// ReadCSV parses a headered CSV export. Rows without a school, with an
// unparseable amount, with an infinite coordinate or with a score outside
// [ScoreMin, ScoreMax] are skipped and reported in Result.Skipped; blank
// numeric cells are kept as nil.
func ReadCSV(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	idx := resolveColumns(header)
	for _, required := range []string{"school", "amount"} {
		if idx[required] < 0 {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingColumn, columns[required][0])
		}
	}

	var res Result
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func resolveColumns(header []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for field, names := range columns {
		idx[field] = -1
		for i, h := range header {
			h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			for _, n := range names {
				if h == n {
					idx[field] = i
				}
			}
			if idx[field] >= 0 {
				break
			}
		}
	}
	return idx
}

func parseRow(row []string, idx map[string]int) (core.DonationRecord, error) {
	get := func(field string) string {
		i := idx[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := core.DonationRecord{
		School:       get("school"),
		Donor:        get("donor"),
		DonorCountry: get("country"),
		RawDate:      get("date"),
	}
	if rec.School == "" {
		return rec, errors.New("empty school")
	}
	amount, err := core.ParseAmount(get("amount"))
	if err != nil {
		return rec, fmt.Errorf("amount %q: %w", get("amount"), err)
	}
	rec.Amount = amount

	for field, dst := range map[string]**float64{"score": &rec.Score, "lat": &rec.Latitude, "lon": &rec.Longitude} {
		v := get(field)
		if v == "" || strings.EqualFold(v, "nan") {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return rec, fmt.Errorf("%s %q: %w", field, v, err)
		}
		if math.IsInf(f, 0) {
			return rec, fmt.Errorf("%s %q: %w", field, v, ErrNotFinite)
		}
		*dst = &f
	}
	if rec.Score != nil && (*rec.Score < core.ScoreMin || *rec.Score > core.ScoreMax) {
		return rec, fmt.Errorf("score %v: %w", *rec.Score, ErrScoreRange)
	}
	return rec, nil
}
