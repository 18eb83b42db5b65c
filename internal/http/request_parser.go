package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodyBytes bounds event payloads. A plotly click carries a handful of
// fields per point; anything larger is not a dashboard event.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a body once and exposes it as JSON or form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes from r. Read failures are
// reported by Err and Parse.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(p.err, &tooLarge) {
		p.err = errBodyTooLarge
	}
	return p
}

// Err reports a transport-level failure reading the body.
func (p *RequestBodyParser) Err() error { return p.err }

// Parse decodes the body as JSON when it looks like JSON, otherwise as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}
	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}
	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if s, ok := p.jsonData[key].(string); ok {
			return sanitizeInput(s)
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) Raw() []byte { return p.body }

// clickPayload accepts plotly's click event data as posted by the page, or a
// bare {"label": ...} for scripted clients.
type clickPayload struct {
	Label  string `json:"label"`
	Points []struct {
		Y     any    `json:"y"`
		Label string `json:"label"`
	} `json:"points"`
}

// ClickLabel extracts the clicked bar's category label. An empty result
// means the payload did not identify a bar.
func ClickLabel(body []byte) string {
	var p clickPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return ""
	}
	if p.Label != "" {
		return sanitizeInput(p.Label)
	}
	if len(p.Points) == 0 {
		return ""
	}
	// Horizontal bars put the category on y.
	if y, ok := p.Points[0].Y.(string); ok {
		return sanitizeInput(y)
	}
	return sanitizeInput(p.Points[0].Label)
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
