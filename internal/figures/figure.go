// Package figures builds Plotly figure documents from shaped donation views.
// Builders are pure functions: the same input always yields an equal figure.
package figures

// Figure is the JSON document handed to Plotly.react in the browser.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace covers the bar, scatter and scattermapbox attributes used here.
type Trace struct {
	Type          string      `json:"type"`
	Name          string      `json:"name,omitempty"`
	Orientation   string      `json:"orientation,omitempty"`
	Mode          string      `json:"mode,omitempty"`
	LegendGroup   string      `json:"legendgroup,omitempty"`
	X             any         `json:"x,omitempty"`
	Y             any         `json:"y,omitempty"`
	Lat           []float64   `json:"lat,omitempty"`
	Lon           []float64   `json:"lon,omitempty"`
	Text          []string    `json:"text,omitempty"`
	TextPosition  string      `json:"textposition,omitempty"`
	CustomData    [][]string  `json:"customdata,omitempty"`
	HoverTemplate string      `json:"hovertemplate,omitempty"`
	Marker        *Marker     `json:"marker,omitempty"`
	Selected      *PointStyle `json:"selected,omitempty"`
	Unselected    *PointStyle `json:"unselected,omitempty"`
	// SelectedPoints is []int when set; an empty slice means nothing selected.
	SelectedPoints any `json:"selectedpoints,omitempty"`
}

type Marker struct {
	Color      any       `json:"color,omitempty"`
	Opacity    any       `json:"opacity,omitempty"`
	Size       []float64 `json:"size,omitempty"`
	SizeMode   string    `json:"sizemode,omitempty"`
	SizeRef    float64   `json:"sizeref,omitempty"`
	ColorScale [][2]any  `json:"colorscale,omitempty"`
	CMin       *float64  `json:"cmin,omitempty"`
	CMax       *float64  `json:"cmax,omitempty"`
	ShowScale  bool      `json:"showscale,omitempty"`
	ColorBar   *ColorBar `json:"colorbar,omitempty"`
}

type ColorBar struct {
	Title *Title `json:"title,omitempty"`
}

type PointStyle struct {
	Marker PointMarker `json:"marker"`
}

type PointMarker struct {
	Opacity float64 `json:"opacity"`
}

type Layout struct {
	Title       *Title       `json:"title,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	ClickMode   string       `json:"clickmode,omitempty"`
	DragMode    string       `json:"dragmode,omitempty"`
	Legend      *Legend      `json:"legend,omitempty"`
	Mapbox      *Mapbox      `json:"mapbox,omitempty"`
	UpdateMenus []UpdateMenu `json:"updatemenus,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Margin      *Margin      `json:"margin,omitempty"`
	// UIRevision keeps zoom and legend toggles across Plotly.react calls
	// for the same school.
	UIRevision string `json:"uirevision,omitempty"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title      *Title `json:"title,omitempty"`
	TickPrefix string `json:"tickprefix,omitempty"`
	Type       string `json:"type,omitempty"`
	AutoRange  any    `json:"autorange,omitempty"`
	AutoMargin bool   `json:"automargin,omitempty"`
}

type Legend struct {
	Title *Title `json:"title,omitempty"`
}

type Mapbox struct {
	Style  string  `json:"style"`
	Zoom   float64 `json:"zoom"`
	Center LatLon  `json:"center"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type UpdateMenu struct {
	Type       string   `json:"type"`
	Direction  string   `json:"direction,omitempty"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	XAnchor    string   `json:"xanchor,omitempty"`
	YAnchor    string   `json:"yanchor,omitempty"`
	ShowActive bool     `json:"showactive"`
	Buttons    []Button `json:"buttons"`
}

type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

type Annotation struct {
	Text      string  `json:"text"`
	ShowArrow bool    `json:"showarrow"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

func emptyAnnotation(text string) []Annotation {
	return []Annotation{{Text: text, XRef: "paper", YRef: "paper", X: 0.5, Y: 0.5}}
}
