package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/raster"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/sscraper"
	"golang.org/x/sync/errgroup"
)

// SymbolExtractor parses the symbol layout of a PDF on disk.
type SymbolExtractor interface {
	Parse(ctx context.Context, pdfPath string) (*models.Document, error)
}

// PageRasterizer renders every page of a PDF on disk as PNG bytes, in page order.
type PageRasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([][]byte, error)
}

// PageCounter reports the page count of a PDF on disk.
type PageCounter interface {
	PageCount(pdfPath string) (int, error)
}

// Predictor turns encoded PDFs into predictions by delegating to the symbol
// extractor and the rasterizer. It keeps no state between calls.
type Predictor struct {
	extractor  SymbolExtractor
	rasterizer PageRasterizer
	inspector  PageCounter
	config     PredictorConfig
}

// NewPredictor creates a Predictor backed by the sscraper and pdftoppm binaries.
func NewPredictor(config PredictorConfig) *Predictor {
	return NewPredictorWithTools(
		config,
		sscraper.NewParser(config.SScraperBin),
		raster.New(config.PdftoppmBin),
		NewPDFInspector(),
	)
}

// NewPredictorWithTools creates a Predictor with explicit collaborators.
func NewPredictorWithTools(config PredictorConfig, extractor SymbolExtractor, rasterizer PageRasterizer, inspector PageCounter) *Predictor {
	if config.DPI <= 0 {
		config.DPI = DefaultDPI
	}
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = DefaultBatchConcurrency
	}
	return &Predictor{
		extractor:  extractor,
		rasterizer: rasterizer,
		inspector:  inspector,
		config:     config,
	}
}

// Predict decodes one instance and returns its prediction.
// Malformed base64 and non-PDF payloads are rejected before any external tool runs.
func (p *Predictor) Predict(ctx context.Context, instance models.Instance) (*models.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf, err := decodePDF(instance.PDF)
	if err != nil {
		return nil, err
	}
	return p.PredictBytes(ctx, pdf, instance.ID, instance.Metadata)
}

// PredictBytes runs the prediction pipeline on raw PDF bytes. id and metadata
// are copied onto the prediction unchanged.
func (p *Predictor) PredictBytes(ctx context.Context, pdf []byte, id string, metadata map[string]any) (*models.Prediction, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("%w: empty PDF payload", ErrInvalidInput)
	}
	if !hasPDFHeader(pdf) {
		return nil, fmt.Errorf("%w: no %%PDF- header in the first %d bytes", ErrInvalidInput, pdfHeaderWindow)
	}
	logCtx := slog.With("instanceId", id)

	tempDir, err := os.MkdirTemp(p.config.TempDir, "predictor-*")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create temp dir: %w", ErrFilesystem, err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logCtx.Warn("Failed to remove temp directory.", "path", tempDir, "error", err)
		}
	}()

	pdfPath := filepath.Join(tempDir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("%w: failed to write input PDF: %w", ErrFilesystem, err)
	}

	// The tools decide whether the PDF is usable; the count only guards their output.
	pageCount, err := p.inspector.PageCount(pdfPath)
	if err != nil {
		logCtx.Warn("Could not count pages, skipping page check.", "error", err)
		pageCount = -1
	}

	doc, err := p.extractor.Parse(ctx, pdfPath)
	if err != nil {
		logCtx.Error("Symbol extraction failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrTool, err)
	}

	pages, err := p.rasterizer.Rasterize(ctx, pdfPath, p.config.DPI)
	if err != nil {
		logCtx.Error("Rasterization failed", "error", err, "dpi", p.config.DPI)
		return nil, fmt.Errorf("%w: %w", ErrTool, err)
	}
	if pageCount >= 0 && len(pages) != pageCount {
		return nil, fmt.Errorf("%w: rasterizer returned %d images for %d pages", ErrTool, len(pages), pageCount)
	}

	doc.Images = make([]string, len(pages))
	for i, page := range pages {
		doc.Images[i] = base64.StdEncoding.EncodeToString(page)
	}

	prediction := doc.ToPrediction(true)
	prediction.ID = id
	prediction.Metadata = metadata
	logCtx.Info("Prediction complete.", "pageCount", len(pages), "tokenCount", len(doc.Tokens))
	return &prediction, nil
}

// PredictBatch predicts every instance independently, at most
// config.BatchConcurrency at a time. predictions[i] belongs to instances[i].
// The first failure cancels the remaining work and is returned.
func (p *Predictor) PredictBatch(ctx context.Context, instances []models.Instance) ([]models.Prediction, error) {
	predictions := make([]models.Prediction, len(instances))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.config.BatchConcurrency)

	scheduled := 0
	for i, instance := range instances {
		if gctx.Err() != nil {
			break
		}
		scheduled++
		eg.Go(func() error {
			prediction, err := p.Predict(gctx, instance)
			if err != nil {
				return fmt.Errorf("instance %d: %w", i, err)
			}
			predictions[i] = *prediction
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if scheduled < len(instances) {
		// Cancelled before every instance was scheduled.
		return nil, ctx.Err()
	}
	return predictions, nil
}

// pdfHeaderWindow is how far into the file poppler looks for the header.
const pdfHeaderWindow = 1024

func hasPDFHeader(data []byte) bool {
	return bytes.Contains(data[:min(len(data), pdfHeaderWindow)], []byte("%PDF-"))
}

// decodePDF accepts standard base64, padded or not.
func decodePDF(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty PDF payload", ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		var rawErr error
		if data, rawErr = base64.RawStdEncoding.DecodeString(encoded); rawErr != nil {
			return nil, fmt.Errorf("%w: malformed base64: %w", ErrInvalidInput, err)
		}
	}
	return data, nil
}
