package figures

import (
	"math"

	"donations/internal/core"
)

// SizeMax is the rendered diameter, in pixels, of the largest gift.
const SizeMax = 15.0

// scoreScale is Bluered reversed: autocracies red, democracies blue.
var scoreScale = [][2]any{{0.0, "rgb(255,0,0)"}, {1.0, "rgb(0,0,255)"}}

const mapHover = "Donor Country: %{customdata[0]}<br>" +
	"Date: %{customdata[1]}<br>" +
	"Amount: %{customdata[2]}<br>" +
	"Democracy Score: %{customdata[3]}<extra></extra>"

// Map builds the scattermapbox of one school's donations. Records without
// valid coordinates are left out.
func Map(records []core.DonationRecord, school string) Figure {
	var (
		lat, lon []float64
		sizes    []float64
		colors   []*float64
		data     [][]string
		maxSize  float64
	)
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		size := float64(r.AbsAmount())
		if size > maxSize {
			maxSize = size
		}
		lat = append(lat, *r.Latitude)
		lon = append(lon, *r.Longitude)
		sizes = append(sizes, size)
		score := finiteScore(r.Score)
		colors = append(colors, score)
		data = append(data, []string{r.DonorCountry, recordDate(r), FormatUSD(r.Amount), FormatScore(score)})
	}

	cmin, cmax := core.ScoreMin, core.ScoreMax
	trace := Trace{
		Type:          "scattermapbox",
		Mode:          "markers",
		Name:          school,
		Lat:           lat,
		Lon:           lon,
		CustomData:    data,
		HoverTemplate: mapHover,
		Marker: &Marker{
			Color:      colors,
			Opacity:    0.5,
			Size:       sizes,
			SizeMode:   "area",
			SizeRef:    sizeRef(maxSize),
			ColorScale: scoreScale,
			CMin:       &cmin,
			CMax:       &cmax,
			ShowScale:  true,
			ColorBar:   &ColorBar{Title: &Title{Text: "Score"}},
		},
	}
	layout := Layout{
		Mapbox:     &Mapbox{Style: "open-street-map", Zoom: 0, Center: center(lat, lon)},
		Margin:     &Margin{L: 0, R: 0, T: 0, B: 0},
		UIRevision: school,
	}
	if len(lat) == 0 {
		layout.Annotations = emptyAnnotation("No located donations")
	}
	return Figure{Data: []Trace{trace}, Layout: layout}
}

// finiteScore drops scores that cannot be encoded as JSON.
func finiteScore(score *float64) *float64 {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return nil
	}
	return score
}

// sizeRef scales marker area so that the largest value renders at SizeMax.
func sizeRef(maxSize float64) float64 {
	if maxSize <= 0 {
		return 1
	}
	return 2 * maxSize / (SizeMax * SizeMax)
}

func center(lat, lon []float64) LatLon {
	if len(lat) == 0 {
		return LatLon{}
	}
	var c LatLon
	for i := range lat {
		c.Lat += lat[i]
		c.Lon += lon[i]
	}
	n := float64(len(lat))
	return LatLon{Lat: c.Lat / n, Lon: c.Lon / n}
}

func recordDate(r core.DonationRecord) string {
	if r.Date.IsZero() {
		return r.RawDate
	}
	return r.Date.Format(dateLayout)
}
