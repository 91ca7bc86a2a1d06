package services

import (
	"fmt"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// PDFInspector reports the page count of a PDF. It is stricter than poppler,
// so callers treat its answer as advisory.
type PDFInspector struct {
	conf *model.Configuration
}

// NewPDFInspector creates an inspector that reads in relaxed mode.
func NewPDFInspector() *PDFInspector {
	// pdfcpu otherwise writes a config dir under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFInspector{conf: conf}
}

// PageCount returns the number of pages of the PDF at path.
// pdfcpu panics on some damaged files; those come back as errors.
func (i *PDFInspector) PageCount(path string) (pageCount int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			pageCount, err = 0, fmt.Errorf("failed to read PDF: %v", r)
		}
	}()
	pageCount, err = api.PageCount(f, i.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pageCount, nil
}
