package services

import "errors"

// Error classes returned by the predictor. Callers match them with errors.Is.
var (
	// ErrInvalidInput covers payloads that are empty, not base64 or have no PDF header.
	ErrInvalidInput = errors.New("invalid input")
	// ErrTool covers failures of the symbol extractor or the rasterizer.
	ErrTool = errors.New("external tool failed")
	// ErrFilesystem covers temp dir and temp file failures.
	ErrFilesystem = errors.New("filesystem error")
)
