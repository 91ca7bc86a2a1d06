package models

import "time"

// Prediction record statuses.
const (
	StatusPredicting = "PREDICTING"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
)

// PredictionRecord is the Firestore document tracking a stored prediction
// for one uploaded PDF.
type PredictionRecord struct {
	FileHash            string    `firestore:"fileHash,omitempty"`
	OriginalFilename    string    `firestore:"originalFilename,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ErrorDetails        string    `firestore:"errorDetails,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	TokenCount          int       `firestore:"tokenCount,omitempty"`
	PredictionURI       string    `firestore:"predictionUri,omitempty"`
	WorkflowExecutionID string    `firestore:"workflowExecutionId,omitempty"` // For traceability
	CreatedAt           time.Time `firestore:"createdAt,omitempty"`
}
