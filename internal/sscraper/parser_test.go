package sscraper

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/pdftest"
)

func writeInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdftest.Minimal(1), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return pdfPath
}

func TestParser_Parse(t *testing.T) {
	bin := pdftest.FakeSScraper(t, t.TempDir(), pdftest.TwoPageXML)
	pdfPath := writeInput(t)

	doc, err := NewParser(bin).Parse(context.Background(), pdfPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Symbols != "Hello world\nBye" {
		t.Fatalf("unexpected symbols: %q", doc.Symbols)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(pdfPath), outDirName, "input.xml")); err != nil {
		t.Fatalf("expected xml next to the input: %v", err)
	}
}

func TestParser_ToolFailure(t *testing.T) {
	bin := pdftest.WriteScript(t, t.TempDir(), "sscraper", "echo 'boom: bad pdf' >&2\nexit 3\n")
	_, err := NewParser(bin).Parse(context.Background(), writeInput(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom: bad pdf") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestParser_NoOutput(t *testing.T) {
	bin := pdftest.WriteScript(t, t.TempDir(), "sscraper", "exit 0\n")
	_, err := NewParser(bin).Parse(context.Background(), writeInput(t))
	if err == nil || !strings.Contains(err.Error(), "no output") {
		t.Fatalf("expected missing output error, got %v", err)
	}
}

func TestParser_MissingBinary(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := NewParser(missing).Parse(context.Background(), writeInput(t)); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestNewParser_DefaultBin(t *testing.T) {
	if p := NewParser(""); p.binPath != DefaultBinPath {
		t.Fatalf("got %q, want %q", p.binPath, DefaultBinPath)
	}
}
