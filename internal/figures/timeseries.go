package figures

import (
	"donations/internal/core"
)

const dateLayout = "2006-01-02"

// alphabet is Plotly's qualitative "Alphabet" palette; donor countries cycle through it.
var alphabet = []string{
	"#AA0DFE", "#3283FE", "#85660D", "#782AB6", "#565656", "#1C8356",
	"#16FF32", "#F7E1A0", "#E2E2E2", "#1CBE4F", "#C4451C", "#DEA0FD",
	"#FE00FA", "#325A9B", "#FEAF16", "#F8A19F", "#90AD1C", "#F6222E",
	"#1CFFCE", "#2ED9FF", "#B10DA1", "#C075A6", "#FC1CBF", "#B00068",
	"#FBE426", "#FA0087",
}

const timeseriesHover = "Date: %{x|%Y-%m-%d}<br>" +
	"Amount: %{customdata[2]}<br>" +
	"Donor Country: %{customdata[0]}<br>" +
	"Donor: %{customdata[1]}<extra></extra>"

type series struct {
	x    []string
	y    []int64
	data [][]string
}

// Timeseries builds the scatter of one school's donations with one trace per
// donor country, in order of first appearance. records must already be shaped
// (date ascending, Unknown filled in).
func Timeseries(records []core.DonationRecord, school string) Figure {
	var order []string
	byCountry := make(map[string]*series)
	for _, r := range records {
		s, ok := byCountry[r.DonorCountry]
		if !ok {
			s = &series{}
			byCountry[r.DonorCountry] = s
			order = append(order, r.DonorCountry)
		}
		s.x = append(s.x, r.Date.Format(dateLayout))
		s.y = append(s.y, r.Amount)
		s.data = append(s.data, []string{r.DonorCountry, r.Donor, FormatUSD(r.Amount)})
	}

	traces := make([]Trace, 0, len(order))
	for i, country := range order {
		s := byCountry[country]
		traces = append(traces, Trace{
			Type:          "scatter",
			Mode:          "markers",
			Name:          country,
			LegendGroup:   country,
			X:             s.x,
			Y:             s.y,
			CustomData:    s.data,
			HoverTemplate: timeseriesHover,
			Marker:        &Marker{Color: alphabet[i%len(alphabet)]},
		})
	}

	layout := Layout{
		Title:       &Title{Text: school},
		XAxis:       &Axis{Title: &Title{Text: ""}, Type: "date"},
		YAxis:       &Axis{Title: &Title{Text: ""}, TickPrefix: "$", Type: "linear"},
		Legend:      &Legend{Title: &Title{Text: "Donor Country"}},
		UpdateMenus: []UpdateMenu{scaleToggle()},
		UIRevision:  school,
	}
	if len(traces) == 0 {
		layout.Annotations = emptyAnnotation("No donations recorded")
	}
	return Figure{Data: traces, Layout: layout}
}

// scaleToggle switches the y axis between linear and log in the browser.
func scaleToggle() UpdateMenu {
	return UpdateMenu{
		Type:      "buttons",
		Direction: "left",
		X:         0,
		Y:         1.12,
		XAnchor:   "left",
		YAnchor:   "bottom",
		Buttons: []Button{
			{Label: "Linear", Method: "relayout", Args: []any{map[string]any{"yaxis.type": "linear"}}},
			{Label: "Log", Method: "relayout", Args: []any{map[string]any{"yaxis.type": "log"}}},
		},
		ShowActive: true,
	}
}
