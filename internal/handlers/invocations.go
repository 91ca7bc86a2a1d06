// Package handlers exposes the predictor over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/services"
)

// DefaultMaxRequestBytes bounds the size of an invocations request body.
const DefaultMaxRequestBytes = 64 << 20

// BatchPredictor is the part of services.Predictor the handler needs.
type BatchPredictor interface {
	PredictBatch(ctx context.Context, instances []models.Instance) ([]models.Prediction, error)
}

// InvocationsHandler serves POST {"instances": [...]} and answers {"predictions": [...]}.
type InvocationsHandler struct {
	predictor       BatchPredictor
	maxRequestBytes int64
}

func NewInvocationsHandler(predictor BatchPredictor, maxRequestBytes int64) *InvocationsHandler {
	if maxRequestBytes <= 0 {
		maxRequestBytes = DefaultMaxRequestBytes
	}
	return &InvocationsHandler{predictor: predictor, maxRequestBytes: maxRequestBytes}
}

func (h *InvocationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.InvocationsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		slog.Warn("Could not decode request body", "error", err)
		respondError(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	predictions, err := h.predictor.PredictBatch(r.Context(), req.Instances)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			slog.Warn("Rejected invalid instance", "error", err)
			respondError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Prediction failed", "error", err, "instanceCount", len(req.Instances))
		respondError(w, "Internal Server Error: prediction failed", http.StatusInternalServerError)
		return
	}

	respondJSON(w, models.InvocationsResponse{Predictions: predictions}, http.StatusOK)
}

// Health reports that the process is up.
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}
