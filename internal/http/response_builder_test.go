package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should be absent without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerViewChanged("cgpa").
		TriggerSemestersChanged(3).
		TriggerWarningNotification("Negative values are not allowed.").
		Write(w)

	var got map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	if got["view:changed"]["view"] != "cgpa" {
		t.Errorf("view:changed = %v", got["view:changed"])
	}
	if got["semesters:changed"]["count"] != float64(3) {
		t.Errorf("semesters:changed = %v", got["semesters:changed"])
	}
	n := got["show-notification"]
	if n["type"] != "warning" || n["message"] != "Negative values are not allowed." {
		t.Errorf("show-notification = %v", n)
	}
}

func TestHTMXResponseBuilder_LastNotificationWins(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerSuccessNotification("first").
		TriggerErrorNotification("second").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if strings.Contains(trigger, "first") || !strings.Contains(trigger, `"type":"error"`) {
		t.Errorf("HX-Trigger = %s", trigger)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		retarget   bool
	}{
		{"bad request", BadRequestError("bad <input>"), http.StatusBadRequest, false},
		{"validation", ValidationError("bad <input>"), http.StatusUnprocessableEntity, true},
		{"not found", NotFoundError("bad <input>"), http.StatusNotFound, false},
		{"internal", InternalServerError("bad <input>"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := w.Body.String()
			if !strings.Contains(body, "bad &lt;input&gt;") {
				t.Errorf("message not escaped: %s", body)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			if got := w.Header().Get("HX-Retarget") == flashTarget; got != tt.retarget {
				t.Errorf("retarget = %v, want %v", got, tt.retarget)
			}
		})
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d", w.Code)
	}
	if w.Header().Get("Allow") != "POST" {
		t.Errorf("Allow = %q", w.Header().Get("Allow"))
	}
}
