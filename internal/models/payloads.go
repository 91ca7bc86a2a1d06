package models

// These structs define the JSON payloads exchanged with the inference API.

// Instance is one unit of input: a base64 encoded PDF plus metadata that is
// passed through to the matching Prediction untouched.
type Instance struct {
	ID       string         `json:"id,omitempty"`
	PDF      string         `json:"pdf"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Prediction is one unit of output: the symbol/layout tree and the rasterized pages.
type Prediction struct {
	ID       string         `json:"id,omitempty"`
	Symbols  string         `json:"symbols"`
	Pages    []SpanGroup    `json:"pages"`
	Rows     []SpanGroup    `json:"rows"`
	Tokens   []SpanGroup    `json:"tokens"`
	Images   []string       `json:"images,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// InvocationsRequest is the body accepted by the invocations endpoint.
type InvocationsRequest struct {
	Instances []Instance `json:"instances"`
}

// InvocationsResponse is the body returned by the invocations endpoint.
// Predictions[i] always belongs to Instances[i].
type InvocationsResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// GCSEvent is the data payload of a Cloud Storage object event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// WorkflowArgument is handed to the downstream workflow once a prediction is stored.
type WorkflowArgument struct {
	DocumentID    string `json:"documentId"`
	PredictionURI string `json:"predictionUri"`
	PageCount     int    `json:"pageCount"`
}
