package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClickLabel(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"plotly point", `{"points":[{"x":12,"y":"Yale University","pointIndex":3}]}`, "Yale University"},
		{"first point wins", `{"points":[{"y":"A"},{"y":"B"}]}`, "A"},
		{"label field", `{"label":"  Rice University "}`, "Rice University"},
		{"numeric y falls back to point label", `{"points":[{"y":3,"label":"Yale University"}]}`, "Yale University"},
		{"control characters stripped", "{\"label\":\"Yale\\u0000 University\"}", "Yale University"},
		{"no points", `{"points":[]}`, ""},
		{"not json", `y=Yale`, ""},
		{"empty", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClickLabel([]byte(tt.body)); got != tt.want {
				t.Errorf("ClickLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
		wantErr     bool
	}{
		{"json", "application/json", `{"alias":"cmu"}`, "cmu", false},
		{"json without content type", "", `{"alias":" yale "}`, "yale", false},
		{"form", "application/x-www-form-urlencoded", "alias=stanford", "stanford", false},
		{"non string json value", "application/json", `{"alias":7}`, "", false},
		{"empty", "", "", "", false},
		{"broken json", "application/json", `{"alias":`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			p := NewRequestBodyParser(httptest.NewRecorder(), req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := p.Get("alias"); got != tt.want {
				t.Errorf("Get = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequestBodyParserLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", maxBodyBytes+1)))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if p.Err() != errBodyTooLarge {
		t.Fatalf("Err = %v, want errBodyTooLarge", p.Err())
	}
}
