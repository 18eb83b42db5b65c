package http

import (
	"encoding/json"
	"net/http"

	applog "donations/internal/log"
)

// JSONResponseBuilder writes JSON responses with a consistent content type.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse(body any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		body:       body,
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// NoStore marks the response as per-session and uncacheable.
func (b *JSONResponseBuilder) NoStore() *JSONResponseBuilder {
	return b.Header("Cache-Control", "no-store")
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	payload, err := json.Marshal(b.body)
	if err != nil {
		applog.FromContext(r.Context()).Error("Failed to encode response", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds a JSON error body.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse(errorBody{Error: message}).Status(statusCode)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func PayloadTooLargeError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
}
