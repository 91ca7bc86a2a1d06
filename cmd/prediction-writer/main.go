package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/gcp"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	writerInstance *services.PredictionWriterFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework will handle routing the event here.
	functions.CloudEvent("PredictUploadedPDF", predictUploadedPDF)
}

func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Function framework exited", "error", err)
		os.Exit(1)
	}
}

// predictUploadedPDF is the Cloud Function entry point for GCS finalize events.
func predictUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		writerInstance, initErr = services.NewPredictionWriter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Returning an error marks the invocation as failed so the event is retried.
	return writerInstance.Process(ctx, gcsEvent)
}
