package figures

import (
	"errors"
	"fmt"

	"donations/internal/core"
)

const (
	HighlightOpacity = 1.0
	DimmedOpacity    = 0.35
)

var ErrHighlightOutOfRange = errors.New("highlight index out of range")

// Restyle is a Plotly.restyle update for the bar trace. Values are wrapped
// one level per trace as restyle expects.
type Restyle struct {
	Opacity        [][]float64 `json:"marker.opacity"`
	SelectedPoints [][]int     `json:"selectedpoints"`
}

// Bar builds the master horizontal bar chart. highlighted is the index of the
// selected school in rows, or -1 when the selection has no aggregate row.
func Bar(rows []core.AggregateRow, highlighted int) (Figure, error) {
	if err := checkHighlight(rows, highlighted); err != nil {
		return Figure{}, err
	}
	layout := Layout{
		XAxis:     &Axis{TickPrefix: "$"},
		YAxis:     &Axis{Title: &Title{Text: ""}, AutoRange: "reversed", AutoMargin: true},
		ClickMode: "event+select",
		DragMode:  "select",
		Margin:    &Margin{L: 10, R: 10, T: 30, B: 30},
	}
	if len(rows) == 0 {
		layout.Annotations = emptyAnnotation("No donations recorded")
		return Figure{Data: []Trace{}, Layout: layout}, nil
	}

	schools := make([]string, len(rows))
	totals := make([]int64, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		schools[i] = r.School
		totals[i] = r.Total
		labels[i] = FormatUSD(r.Total)
	}
	trace := Trace{
		Type:           "bar",
		Orientation:    "h",
		X:              totals,
		Y:              schools,
		Text:           labels,
		TextPosition:   "none",
		HoverTemplate:  "%{y}<br>Total: %{text}<extra></extra>",
		Marker:         &Marker{Opacity: opacities(len(rows), highlighted)},
		Selected:       &PointStyle{Marker: PointMarker{Opacity: HighlightOpacity}},
		Unselected:     &PointStyle{Marker: PointMarker{Opacity: DimmedOpacity}},
		SelectedPoints: selection(highlighted),
	}
	return Figure{Data: []Trace{trace}, Layout: layout}, nil
}

// BarHighlight returns the patch that moves the highlight of an existing bar
// figure built from the same rows.
func BarHighlight(rows []core.AggregateRow, highlighted int) (Restyle, error) {
	if err := checkHighlight(rows, highlighted); err != nil {
		return Restyle{}, err
	}
	return Restyle{
		Opacity:        [][]float64{opacities(len(rows), highlighted)},
		SelectedPoints: [][]int{selection(highlighted)},
	}, nil
}

func checkHighlight(rows []core.AggregateRow, highlighted int) error {
	if highlighted < -1 || highlighted >= len(rows) {
		return fmt.Errorf("%w: %d not in [-1, %d)", ErrHighlightOutOfRange, highlighted, len(rows))
	}
	return nil
}

func opacities(n, highlighted int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = DimmedOpacity
	}
	if highlighted >= 0 {
		out[highlighted] = HighlightOpacity
	}
	return out
}

func selection(highlighted int) []int {
	if highlighted < 0 {
		return []int{}
	}
	return []int{highlighted}
}
