package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	NewJSONResponse(map[string]string{"status": "ok"}).
		Status(http.StatusAccepted).
		NoStore().
		Write(w, r)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != `{"status":"ok"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	if w.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
		body    string
	}{
		{"bad request", BadRequestError("unreadable request body"), http.StatusBadRequest, `{"error":"unreadable request body"}`},
		{"too large", PayloadTooLargeError(), http.StatusRequestEntityTooLarge, `{"error":"request body too large"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w, httptest.NewRequest(http.MethodPost, "/", nil))
			if w.Code != tt.code || w.Body.String() != tt.body {
				t.Errorf("got %d %s, want %d %s", w.Code, w.Body.String(), tt.code, tt.body)
			}
		})
	}
}

func TestUnencodableBodyIs500(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse(math.NaN()).Write(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
}
