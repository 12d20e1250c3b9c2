// Package respond writes the JSON envelope shared by loaded routes and the
// not-found handler.
package respond

import (
	"encoding/json"
	"net/http"
)

// ContentType is the media type of every envelope.
const ContentType = "application/json"

// NotFoundMessage is the message of the standard not-found envelope.
const NotFoundMessage = "Resource not found"

// Response describes an envelope to write.
type Response struct {
	// StatusCode is the HTTP status written to the response.
	StatusCode int
	Message    string
	Payload    any

	// ResponseStatusCode is echoed in the body; defaults to StatusCode.
	// Callers may use an application-specific code (string or number).
	ResponseStatusCode any

	// Status overrides the success flag; defaults to StatusCode < 400.
	Status *bool
}

// Body is the JSON envelope.
type Body struct {
	Status             bool   `json:"status"`
	Message            string `json:"message"`
	Payload            any    `json:"payload"`
	ResponseStatusCode any    `json:"responseStatusCode"`
}

// BodyOf returns the envelope r describes, with defaults applied.
func BodyOf(r Response) Body {
	status := r.StatusCode < http.StatusBadRequest
	if r.Status != nil {
		status = *r.Status
	}

	code := r.ResponseStatusCode
	if code == nil {
		code = r.StatusCode
	}

	return Body{
		Status:             status,
		Message:            r.Message,
		Payload:            r.Payload,
		ResponseStatusCode: code,
	}
}

// Write writes the envelope with r.StatusCode and completes the response.
func Write(w http.ResponseWriter, r Response) {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(BodyOf(r))
}

// OK writes a 200 envelope carrying payload.
func OK(w http.ResponseWriter, message string, payload any) {
	Write(w, Response{StatusCode: http.StatusOK, Message: message, Payload: payload})
}

// NotFound writes the standard not-found envelope.
func NotFound(w http.ResponseWriter) {
	Write(w, Response{StatusCode: http.StatusNotFound, Message: NotFoundMessage})
}

// NotFoundHandler is NotFound as an http.HandlerFunc.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	NotFound(w)
}

// Bool returns a pointer to b, for Response.Status.
func Bool(b bool) *bool {
	return &b
}
