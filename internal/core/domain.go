package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// Unknown replaces missing donor and donor-country values on detail views.
const Unknown = "Unknown"

// Bounds of the democracy index score.
const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

type (
	// School is one institution as known to the alias directory.
	School struct {
		Name  string `json:"name"`  // canonical display name, as stored in the data
		Alias string `json:"alias"` // short machine-friendly identifier used by the dropdown
	}

	// DonationRecord is one disclosed gift joined with the donor country's
	// democracy index data.
	DonationRecord struct {
		School       string
		Donor        string
		DonorCountry string
		Date         time.Time
		RawDate      string
		Amount       int64
		Score        *float64
		Latitude     *float64
		Longitude    *float64
	}

	// AggregateRow is one school's total across all of its records.
	AggregateRow struct {
		School string
		Total  int64
	}

	// SelectionState is the highlighted school of one dashboard session.
	SelectionState struct {
		School string `json:"school"`
	}
)

var (
	ErrUnknownSchool  = errors.New("unknown school")
	ErrMalformedEvent = errors.New("malformed event")
)

// HasCoordinates reports whether the record can be placed on a map.
func (r DonationRecord) HasCoordinates() bool {
	if r.Latitude == nil || r.Longitude == nil {
		return false
	}
	lat, lon := *r.Latitude, *r.Longitude
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// AbsAmount returns the magnitude of the gift; corrections are stored as
// negative amounts. MinInt64 saturates to MaxInt64.
func (r DonationRecord) AbsAmount() int64 {
	if r.Amount == math.MinInt64 {
		return math.MaxInt64
	}
	if r.Amount < 0 {
		return -r.Amount
	}
	return r.Amount
}

// IsZero reports whether no school has been selected yet.
func (s SelectionState) IsZero() bool {
	return strings.TrimSpace(s.School) == ""
}

// IndexOf returns the position of school in rows, or -1.
func IndexOf(rows []AggregateRow, school string) int {
	for i, r := range rows {
		if r.School == school {
			return i
		}
	}
	return -1
}

// SelectionEvent records one successful selection change, for analytics.
type SelectionEvent struct {
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	School    string    `json:"school"`
	Alias     string    `json:"alias"`
	At        time.Time `json:"at"`
}
