package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/services"
)

type stubPredictor struct {
	got []models.Instance
	err error
}

func (s *stubPredictor) PredictBatch(_ context.Context, instances []models.Instance) ([]models.Prediction, error) {
	s.got = instances
	if s.err != nil {
		return nil, s.err
	}
	predictions := make([]models.Prediction, len(instances))
	for i, instance := range instances {
		predictions[i] = models.Prediction{ID: instance.ID, Images: []string{"aW1n"}}
	}
	return predictions, nil
}

func TestInvocations_OK(t *testing.T) {
	stub := &stubPredictor{}
	h := NewInvocationsHandler(stub, 0)

	body := `{"instances":[{"id":"a","pdf":"JVBERg=="},{"id":"b","pdf":"JVBERg==","metadata":{"k":"v"}}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
	var resp models.InvocationsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Predictions) != 2 || resp.Predictions[0].ID != "a" || resp.Predictions[1].ID != "b" {
		t.Fatalf("unexpected predictions: %+v", resp.Predictions)
	}
	if stub.got[1].Metadata["k"] != "v" {
		t.Fatalf("metadata not decoded: %+v", stub.got[1])
	}
}

func TestInvocations_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		err        error
		wantStatus int
	}{
		{"wrong method", http.MethodGet, "", nil, http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", nil, http.StatusBadRequest},
		{"invalid instance", http.MethodPost, `{"instances":[{"pdf":"!!"}]}`, fmt.Errorf("instance 0: %w", services.ErrInvalidInput), http.StatusBadRequest},
		{"tool failure", http.MethodPost, `{"instances":[{"pdf":"JVBERg=="}]}`, fmt.Errorf("instance 0: %w", services.ErrTool), http.StatusInternalServerError},
		{"unknown failure", http.MethodPost, `{"instances":[{"pdf":"JVBERg=="}]}`, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewInvocationsHandler(&stubPredictor{err: tt.err}, 0)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/invocations", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp["error"] == "" {
				t.Fatalf("expected error body, got %q (%v)", rec.Body.String(), err)
			}
		})
	}
}

func TestInvocations_BodyTooLarge(t *testing.T) {
	h := NewInvocationsHandler(&stubPredictor{}, 16)
	body := `{"instances":[{"pdf":"` + strings.Repeat("A", 64) + `"}]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(body)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestInvocations_EmptyBatch(t *testing.T) {
	h := NewInvocationsHandler(&stubPredictor{}, 0)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invocations", strings.NewReader(`{"instances":[]}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"predictions":[]}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}
