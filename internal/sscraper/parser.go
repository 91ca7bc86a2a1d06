// Package sscraper runs the SymbolScraper command line tool and turns its XML
// output into a models.Document.
package sscraper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
)

// DefaultBinPath is the binary looked up on PATH when no explicit path is configured.
const DefaultBinPath = "sscraper"

// outDirName is created next to the input PDF to receive the XML output.
const outDirName = "sscraper-out"

// Parser invokes the sscraper binary.
type Parser struct {
	binPath string
}

// NewParser creates a Parser for the given binary. An empty path falls back to DefaultBinPath.
func NewParser(binPath string) *Parser {
	if binPath == "" {
		binPath = DefaultBinPath
	}
	return &Parser{binPath: binPath}
}

// Parse extracts the symbol layout of the PDF at pdfPath.
// The XML output is written into a directory next to the PDF, so the caller
// controls its lifetime by owning the PDF's directory.
func (p *Parser) Parse(ctx context.Context, pdfPath string) (*models.Document, error) {
	outDir := filepath.Join(filepath.Dir(pdfPath), outDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sscraper output dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-b", pdfPath, outDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("sscraper failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("sscraper failed: %w", err)
	}

	xmlPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))+".xml")
	f, err := os.Open(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("sscraper produced no output: %w", err)
	}
	defer f.Close()

	return Decode(f)
}
