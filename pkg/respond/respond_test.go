package respond_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artpar/routeloader/pkg/respond"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestWrite_Defaults(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Write(rec, respond.Response{
		StatusCode: http.StatusCreated,
		Message:    "created",
		Payload:    map[string]string{"id": "u1"},
	})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != respond.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}

	body := decode(t, rec)
	if body["status"] != true {
		t.Errorf("status = %v, want true", body["status"])
	}
	if body["message"] != "created" {
		t.Errorf("message = %v", body["message"])
	}
	if body["responseStatusCode"] != float64(201) {
		t.Errorf("responseStatusCode = %v, want 201", body["responseStatusCode"])
	}
	payload, ok := body["payload"].(map[string]any)
	if !ok || payload["id"] != "u1" {
		t.Errorf("payload = %v", body["payload"])
	}
}

func TestWrite_Overrides(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Write(rec, respond.Response{
		StatusCode:         http.StatusOK,
		Message:            "soft failure",
		ResponseStatusCode: "E_QUOTA",
		Status:             respond.Bool(false),
	})

	body := decode(t, rec)
	if body["status"] != false {
		t.Errorf("status = %v, want false", body["status"])
	}
	if body["responseStatusCode"] != "E_QUOTA" {
		t.Errorf("responseStatusCode = %v, want E_QUOTA", body["responseStatusCode"])
	}
	if _, ok := body["payload"]; !ok {
		t.Error("payload key missing")
	}
	if body["payload"] != nil {
		t.Errorf("payload = %v, want null", body["payload"])
	}
}

func TestWrite_ZeroStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.Write(rec, respond.Response{Message: "hi"})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body := decode(t, rec); body["responseStatusCode"] != float64(200) {
		t.Errorf("responseStatusCode = %v, want 200", body["responseStatusCode"])
	}
}

func TestNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.NotFoundHandler(rec, httptest.NewRequest("GET", "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != false {
		t.Errorf("status = %v, want false", body["status"])
	}
	if body["message"] != respond.NotFoundMessage {
		t.Errorf("message = %v", body["message"])
	}
	if body["responseStatusCode"] != float64(404) {
		t.Errorf("responseStatusCode = %v, want 404", body["responseStatusCode"])
	}
}

func TestBodyOf(t *testing.T) {
	b := respond.BodyOf(respond.Response{StatusCode: 500, Message: "boom"})
	if b.Status {
		t.Error("Status = true for 500")
	}
	if b.ResponseStatusCode != 500 {
		t.Errorf("ResponseStatusCode = %v, want 500", b.ResponseStatusCode)
	}
}
