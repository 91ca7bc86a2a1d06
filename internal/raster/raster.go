// Package raster renders PDF pages to PNG images with poppler's pdftoppm.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultBinPath is the binary looked up on PATH when no explicit path is configured.
const DefaultBinPath = "pdftoppm"

// outDirName is created next to the input PDF to receive the rendered pages.
const outDirName = "pages"

// Rasterizer invokes pdftoppm.
type Rasterizer struct {
	binPath string
}

// New creates a Rasterizer for the given binary. An empty path falls back to DefaultBinPath.
func New(binPath string) *Rasterizer {
	if binPath == "" {
		binPath = DefaultBinPath
	}
	return &Rasterizer{binPath: binPath}
}

// Rasterize renders every page of the PDF at pdfPath at the given resolution
// and returns the PNG bytes in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("invalid dpi %d", dpi)
	}
	outDir := filepath.Join(filepath.Dir(pdfPath), outDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create raster output dir: %w", err)
	}

	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx, r.binPath, "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftoppm failed: %w", err)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.New("no rendered pages found")
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumberFromName(matches[i]) < pageNumberFromName(matches[j])
	})

	pages := make([][]byte, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rendered page %s: %w", filepath.Base(path), err)
		}
		pages = append(pages, data)
	}
	return pages, nil
}

// pageNumberFromName extracts N from "page-N.png"; pdftoppm zero pads N
// depending on the page count.
func pageNumberFromName(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
