package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/gcp"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/handlers"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/services"
)

var (
	invocationsHandler *handlers.InvocationsHandler
	once               sync.Once
	initErr            error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleInvocations" is the entry point name configured in GCP.
	functions.HTTP("HandleInvocations", handleInvocations)
	functions.HTTP("HandleHealth", handlers.Health)
}

// main serves the registered functions locally; FUNCTION_TARGET picks one and
// serves it at "/". Without it the functions are also served at /invocations
// and /health.
func main() {
	if gcp.GetEnv("FUNCTION_TARGET", "") == "" {
		ctx := context.Background()
		for path, fn := range map[string]func(http.ResponseWriter, *http.Request){
			"/invocations": handleInvocations,
			"/health":      handlers.Health,
		} {
			if err := funcframework.RegisterHTTPFunctionContext(ctx, path, fn); err != nil {
				slog.Error("Failed to register route", "path", path, "error", err)
				os.Exit(1)
			}
		}
	}
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Function framework exited", "error", err)
		os.Exit(1)
	}
}

func handleInvocations(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		invocationsHandler, initErr = newInvocationsHandler()
	})
	if initErr != nil {
		slog.Error("Critical: Predictor initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	invocationsHandler.ServeHTTP(w, r)
}

func newInvocationsHandler() (*handlers.InvocationsHandler, error) {
	config, err := services.LoadPredictorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var maxRequestBytes int64
	if raw := gcp.GetEnv("MAX_REQUEST_BYTES", ""); raw != "" {
		maxRequestBytes, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MAX_REQUEST_BYTES must be an integer: %w", err)
		}
	}

	slog.Info("Predictor initialized.", "dpi", config.DPI, "batchConcurrency", config.BatchConcurrency)
	return handlers.NewInvocationsHandler(services.NewPredictor(*config), maxRequestBytes), nil
}
