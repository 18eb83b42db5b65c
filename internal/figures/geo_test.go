package figures

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donations/internal/core"
)

func f(v float64) *float64 { return &v }

func geoRecords() []core.DonationRecord {
	return []core.DonationRecord{
		{DonorCountry: "JAPAN", Date: day("2015-01-02"), Amount: 900, Score: f(8.1), Latitude: f(36.2), Longitude: f(138.2)},
		{DonorCountry: "CHINA", Date: day("2016-01-02"), Amount: -3600, Score: f(2.2), Latitude: f(35.8), Longitude: f(104.1)},
		{DonorCountry: "NOWHERE", Amount: 10, Latitude: f(120), Longitude: f(0)},
		{DonorCountry: "QATAR", RawDate: "sometime", Amount: 100, Latitude: f(25.3), Longitude: f(51.1)},
	}
}

func TestMapSizesAreAbsoluteAmounts(t *testing.T) {
	fig := Map(geoRecords(), "Stanford University")
	require.Len(t, fig.Data, 1)
	tr := fig.Data[0]
	assert.Equal(t, "scattermapbox", tr.Type)
	assert.Equal(t, []float64{900, 3600, 100}, tr.Marker.Size)
	assert.Equal(t, []float64{36.2, 35.8, 25.3}, tr.Lat)
	for _, s := range tr.Marker.Size {
		assert.GreaterOrEqual(t, s, 0.0)
	}
}

func TestMapMarkerScale(t *testing.T) {
	tr := Map(geoRecords(), "Stanford University").Data[0]
	assert.Equal(t, "area", tr.Marker.SizeMode)
	assert.InDelta(t, 2*3600/(SizeMax*SizeMax), tr.Marker.SizeRef, 1e-9)
	assert.Equal(t, 0.0, *tr.Marker.CMin)
	assert.Equal(t, 10.0, *tr.Marker.CMax)
	assert.Equal(t, 0.5, tr.Marker.Opacity)
}

func TestMapCustomData(t *testing.T) {
	tr := Map(geoRecords(), "Stanford University").Data[0]
	assert.Equal(t, []string{"CHINA", "2016-01-02", "-$3,600", "2.20"}, tr.CustomData[1])
	assert.Equal(t, []string{"QATAR", "sometime", "$100", "n/a"}, tr.CustomData[2])
}

func TestMapDropsNonFiniteScores(t *testing.T) {
	records := []core.DonationRecord{
		{DonorCountry: "CHINA", Amount: 5, Score: f(math.Inf(1)), Latitude: f(35.8), Longitude: f(104.1)},
		{DonorCountry: "QATAR", Amount: 7, Score: f(math.NaN()), Latitude: f(25.3), Longitude: f(51.1)},
	}
	fig := Map(records, "Stanford University")
	tr := fig.Data[0]
	assert.Equal(t, []*float64{nil, nil}, tr.Marker.Color)
	assert.Equal(t, "n/a", tr.CustomData[0][3])

	_, err := json.Marshal(fig)
	require.NoError(t, err)
}

func TestMapLayout(t *testing.T) {
	fig := Map(geoRecords(), "Stanford University")
	require.NotNil(t, fig.Layout.Mapbox)
	assert.Equal(t, "open-street-map", fig.Layout.Mapbox.Style)
	assert.Equal(t, 0.0, fig.Layout.Mapbox.Zoom)
}

func TestMapEmpty(t *testing.T) {
	fig := Map(nil, "Rice University")
	require.Len(t, fig.Data, 1)
	assert.Empty(t, fig.Data[0].Lat)
	assert.Equal(t, 1.0, fig.Data[0].Marker.SizeRef)
	assert.Len(t, fig.Layout.Annotations, 1)
}

func TestMapDeterministic(t *testing.T) {
	a := Map(geoRecords(), "Stanford University")
	b := Map(geoRecords(), "Stanford University")
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("non-deterministic map:\n%s", diff)
	}
}
