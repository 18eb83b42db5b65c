package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donations/internal/core"
)

func fp(f float64) *float64 { return &f }

func TestParseDate(t *testing.T) {
	want := time.Date(2014, 3, 9, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2014-03-09", "2014-03-09 00:00:00", "2014-03-09T00:00:00Z", "3/9/2014"} {
		got, ok := ParseDate(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}
	_, ok := ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("March 9th")
	assert.False(t, ok)
}

func TestSortAggregatesDescendingAndStable(t *testing.T) {
	rows := []core.AggregateRow{
		{School: "A", Total: 10},
		{School: "B", Total: 30},
		{School: "C", Total: 10},
		{School: "D", Total: -5},
		{School: "E", Total: 30},
	}
	SortAggregates(rows)
	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.School
	}
	assert.Equal(t, []string{"B", "E", "A", "C", "D"}, got)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Total, rows[i].Total)
	}
}

func TestShapeTimeseries(t *testing.T) {
	in := []core.DonationRecord{
		{RawDate: "2015-06-01", Amount: 3, Donor: "X", DonorCountry: "CHINA"},
		{RawDate: "2012-01-01", Amount: 1},
		{RawDate: "not a date", Amount: 9},
		{RawDate: "2013-01-01", Amount: 2, Donor: "  "},
	}
	out, dropped := ShapeTimeseries(in)
	require.Len(t, out, 3)
	assert.Equal(t, 1, dropped)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Date.Before(out[i-1].Date), "dates must be non-decreasing")
	}
	assert.Equal(t, core.Unknown, out[0].Donor)
	assert.Equal(t, core.Unknown, out[0].DonorCountry)
	assert.Equal(t, core.Unknown, out[1].Donor)
	assert.Equal(t, "X", out[2].Donor)
}

func TestFilterGeo(t *testing.T) {
	in := []core.DonationRecord{
		{Amount: 1, Latitude: fp(10), Longitude: fp(20)},
		{Amount: 2, Latitude: fp(10)},
		{Amount: 3, Latitude: fp(100), Longitude: fp(20)},
		{Amount: -4, Latitude: fp(-10), Longitude: fp(-20), RawDate: "2010-05-05"},
	}
	out := FilterGeo(in)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].Amount)
	assert.Equal(t, int64(-4), out[1].Amount)
	assert.Equal(t, 2010, out[1].Date.Year())
	assert.Equal(t, core.Unknown, out[0].DonorCountry)
}
