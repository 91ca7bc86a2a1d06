package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/gcp"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
)

type PredictionWriterConfig struct {
	ProjectID         string
	PredictionsBucket string
	CollectionName    string
	WorkflowID        string
	WorkflowLocation  string
}

// RecordStore tracks one prediction record per uploaded file.
type RecordStore interface {
	FindByHash(ctx context.Context, fileHash string) (string, *models.PredictionRecord, error)
	Create(ctx context.Context, record models.PredictionRecord) (string, error)
	Update(ctx context.Context, docID string, updates []firestore.Update) error
}

// ObjectStore reads source PDFs and writes prediction JSON.
type ObjectStore interface {
	Download(ctx context.Context, bucket, object, destPath string) error
	SaveAtomically(ctx context.Context, bucket, object string, content []byte, contentType string) error
}

// BytesPredictor runs the prediction pipeline on raw PDF bytes.
type BytesPredictor interface {
	PredictBytes(ctx context.Context, pdf []byte, id string, metadata map[string]any) (*models.Prediction, error)
}

// WorkflowStarter starts a downstream workflow and returns the execution name.
type WorkflowStarter interface {
	Start(ctx context.Context, argument any) (string, error)
}

// PredictionWriterFunction predicts uploaded PDFs and stores the result in GCS,
// tracking each file in Firestore.
type PredictionWriterFunction struct {
	objects   ObjectStore
	records   RecordStore
	workflows WorkflowStarter // nil when no workflow is configured
	predictor BytesPredictor
	config    PredictionWriterConfig
}

func loadPredictionWriterConfig() (*PredictionWriterConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	config := &PredictionWriterConfig{
		ProjectID:         projectID,
		PredictionsBucket: gcp.GetEnv("PREDICTIONS_BUCKET", ""),
		CollectionName:    gcp.GetEnv("FIRESTORE_COLLECTION", "predictions"),
		WorkflowID:        gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation:  gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}
	if config.PredictionsBucket == "" {
		return nil, fmt.Errorf("PREDICTIONS_BUCKET environment variable must be set")
	}
	return config, nil
}

func NewPredictionWriter(ctx context.Context) (*PredictionWriterFunction, error) {
	config, err := loadPredictionWriterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	predictorConfig, err := LoadPredictorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load predictor configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	var workflows WorkflowStarter
	if config.WorkflowID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		workflows = gcp.WorkflowStarter{
			Client: executionsClient,
			Parent: gcp.WorkflowParent(config.ProjectID, config.WorkflowLocation, config.WorkflowID),
		}
	}

	f := NewPredictionWriterWithStores(
		*config,
		gcp.GCSObjects{Client: storageClient},
		gcp.FirestoreRecords{Client: firestoreClient, Collection: config.CollectionName},
		workflows,
		NewPredictor(*predictorConfig),
	)
	slog.Info("Prediction writer initialized.", "predictionsBucket", config.PredictionsBucket, "workflowId", config.WorkflowID)
	return f, nil
}

// NewPredictionWriterWithStores creates a writer with explicit collaborators.
// workflows may be nil.
func NewPredictionWriterWithStores(config PredictionWriterConfig, objects ObjectStore, records RecordStore, workflows WorkflowStarter, predictor BytesPredictor) *PredictionWriterFunction {
	return &PredictionWriterFunction{
		objects:   objects,
		records:   records,
		workflows: workflows,
		predictor: predictor,
		config:    config,
	}
}

// Process predicts one uploaded PDF. Non-PDF objects and files that already
// have a COMPLETE record are skipped. A FAILED or PREDICTING record for the
// same file is reused, so a redelivered event resumes the work.
// Unreadable PDFs are recorded as FAILED and not returned as errors, since a
// retry cannot fix them.
func (f *PredictionWriterFunction) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !isPDFObject(e.Name) {
		logCtx.Info("Object is not a PDF. Skipping.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	tempDir, err := os.MkdirTemp("", "prediction-writer-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "source.pdf")
	if err := f.objects.Download(ctx, e.Bucket, e.Name, sourcePath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(sourcePath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	docID, err := f.claimRecord(ctx, logCtx, fileHash, e.Name)
	if err != nil || docID == "" {
		return err
	}
	logCtx = logCtx.With("documentId", docID)

	pdf, err := os.ReadFile(sourcePath)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to read downloaded PDF", err)
	}
	prediction, err := f.predictor.PredictBytes(ctx, pdf, docID, map[string]any{
		"gcsUri": gcp.ObjectURI(e.Bucket, e.Name),
	})
	if err != nil {
		err = f.handleError(ctx, logCtx, docID, "prediction failed", err)
		if errors.Is(err, ErrInvalidInput) {
			return nil
		}
		return err
	}

	predictionURI, err := f.savePrediction(ctx, docID, prediction)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to store prediction", err)
	}

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusComplete},
		{Path: "pageCount", Value: len(prediction.Images)},
		{Path: "tokenCount", Value: len(prediction.Tokens)},
		{Path: "predictionUri", Value: predictionURI},
	}
	if err := f.records.Update(ctx, docID, updates); err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to update status to COMPLETE", err)
	}
	logCtx.Info("Prediction stored.", "predictionUri", predictionURI, "pageCount", len(prediction.Images))

	return f.triggerWorkflow(ctx, logCtx, docID, predictionURI, len(prediction.Images))
}

// claimRecord returns the record ID to predict into, or "" when the file was
// already predicted.
func (f *PredictionWriterFunction) claimRecord(ctx context.Context, logCtx *slog.Logger, fileHash, filename string) (string, error) {
	docID, existing, err := f.records.FindByHash(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return "", err
	}

	switch {
	case existing == nil:
		docID, err = f.records.Create(ctx, models.PredictionRecord{
			FileHash:         fileHash,
			OriginalFilename: filename,
			Status:           models.StatusPredicting,
			CreatedAt:        time.Now(),
		})
		if err != nil {
			logCtx.Error("Failed to create prediction record", "error", err)
			return "", fmt.Errorf("failed to create prediction record: %w", err)
		}
		return docID, nil
	case existing.Status == models.StatusComplete:
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		return "", nil
	default:
		// Predictions are written with a DoesNotExist precondition, so a rerun
		// racing an in-flight attempt stores the same object once.
		logCtx.Info("Resuming prediction for existing record.", "existingDocId", docID, "status", existing.Status)
		updates := []firestore.Update{
			{Path: "status", Value: models.StatusPredicting},
			{Path: "errorDetails", Value: firestore.Delete},
		}
		if err := f.records.Update(ctx, docID, updates); err != nil {
			logCtx.Error("Failed to reset prediction record", "error", err)
			return "", err
		}
		return docID, nil
	}
}

func (f *PredictionWriterFunction) savePrediction(ctx context.Context, docID string, prediction *models.Prediction) (string, error) {
	payload, err := json.Marshal(prediction)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction: %w", err)
	}
	objectName := predictionObjectName(docID)
	if err := f.objects.SaveAtomically(ctx, f.config.PredictionsBucket, objectName, payload, "application/json"); err != nil {
		return "", err
	}
	return gcp.ObjectURI(f.config.PredictionsBucket, objectName), nil
}

func (f *PredictionWriterFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docID, predictionURI string, pageCount int) error {
	if f.workflows == nil {
		return nil
	}
	logCtx.Info("Triggering workflow.", "workflowId", f.config.WorkflowID)
	executionName, err := f.workflows.Start(ctx, models.WorkflowArgument{
		DocumentID:    docID,
		PredictionURI: predictionURI,
		PageCount:     pageCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to trigger workflow execution", err)
	}
	if err := f.records.Update(ctx, docID, []firestore.Update{{Path: "workflowExecutionId", Value: executionName}}); err != nil {
		logCtx.Warn("Failed to record workflow execution", "error", err, "execution", executionName)
	}
	return nil
}

// handleError records the failure on the prediction record and returns an
// error that still wraps originalErr.
func (f *PredictionWriterFunction) handleError(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	fullError := fmt.Errorf("%s: %w", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusFailed},
		{Path: "errorDetails", Value: fullError.Error()},
	}
	if err := f.records.Update(ctx, docID, updates); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fullError
}

func isPDFObject(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}

func predictionObjectName(docID string) string {
	return fmt.Sprintf("%s/prediction.json", docID)
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
