package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/pdftest"
)

func TestPDFInspector_PageCount(t *testing.T) {
	inspector := NewPDFInspector()
	for _, pages := range []int{1, 3} {
		path := filepath.Join(t.TempDir(), "input.pdf")
		if err := os.WriteFile(path, pdftest.Minimal(pages), 0o600); err != nil {
			t.Fatalf("write pdf: %v", err)
		}
		got, err := inspector.PageCount(path)
		if err != nil {
			t.Fatalf("page count: %v", err)
		}
		if got != pages {
			t.Fatalf("got %d pages, want %d", got, pages)
		}
	}
}

func TestPDFInspector_RejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewPDFInspector().PageCount(path); err == nil {
		t.Fatal("expected error for non-PDF content")
	}
}

func TestPDFInspector_DamagedFilesReturnErrors(t *testing.T) {
	tests := map[string][]byte{
		"wrong startxref": pdftest.WithStartxref(pdftest.Minimal(1), 9),
		"no xref table":   pdftest.WithoutXRef(pdftest.Minimal(1)),
	}
	inspector := NewPDFInspector()
	for name, pdf := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "input.pdf")
			if err := os.WriteFile(path, pdf, 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := inspector.PageCount(path); err == nil {
				t.Fatal("expected an error for a damaged PDF")
			}
		})
	}
}
