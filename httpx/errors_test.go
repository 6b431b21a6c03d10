package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mbolis/survey-stats/fault"
)

func TestLogError(t *testing.T) {
	validation := fault.NewValidation("Validation failed")
	validation.Add("title", "the title is required")

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("get survey 3: %w", fault.ErrNotFound), http.StatusNotFound},
		{"not accepting", fault.ErrSurveyNotAcceptingResponses, http.StatusBadRequest},
		{"already submitted", fault.ErrAlreadySubmitted, http.StatusConflict},
		{"validation", validation, http.StatusUnprocessableEntity},
		{"client error", fault.NewClientError("bad", errors.New("cause")), http.StatusUnprocessableEntity},
		{"internal error", fault.NewInternalError("db down", errors.New("cause")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			LogError(w, r, "test", tt.err)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestLogError_ValidationBody(t *testing.T) {
	v := fault.NewValidation("Validation failed")
	v.Add("questions.0.type", "the selected type is invalid")

	w := httptest.NewRecorder()
	LogError(w, httptest.NewRequest(http.MethodPost, "/", nil), "test", fmt.Errorf("create: %w", v))

	var body struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if body.Message != "Validation failed" {
		t.Errorf("message = %q", body.Message)
	}
	if len(body.Errors["questions.0.type"]) != 1 {
		t.Errorf("errors = %v", body.Errors)
	}
}

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	if buf.Status() != 0 {
		t.Errorf("Status() = %d before writing", buf.Status())
	}

	buf.Write([]byte(`{"access_token":"abc"}`))
	if buf.Status() != http.StatusOK {
		t.Errorf("Status() = %d, want implicit 200", buf.Status())
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := buf.Decode(&body); err != nil || body.AccessToken != "abc" {
		t.Errorf("Decode() = %+v, %v", body, err)
	}

	buf = NewResponseBuffer()
	buf.Header().Set("x-test", "1")
	buf.WriteHeader(http.StatusTeapot)
	buf.WriteHeader(http.StatusOK)
	buf.Write([]byte("hello"))
	if buf.Status() != http.StatusTeapot {
		t.Errorf("Status() = %d, want the first status written", buf.Status())
	}

	w := httptest.NewRecorder()
	if err := buf.Flush(w); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusTeapot || w.Body.String() != "hello" || w.Header().Get("x-test") != "1" {
		t.Errorf("flushed %d %q %v", w.Code, w.Body.String(), w.Header())
	}
}
