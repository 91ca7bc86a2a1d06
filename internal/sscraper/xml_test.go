package sscraper

import (
	"math"
	"strings"
	"testing"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
	"github.com/Lllllllleong/symbolscraperpredictor/internal/pdftest"
)

func TestDecode_TwoPages(t *testing.T) {
	doc, err := Decode(strings.NewReader(pdftest.TwoPageXML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.Symbols != "Hello world\nBye" {
		t.Fatalf("unexpected symbols: %q", doc.Symbols)
	}
	if len(doc.Tokens) != 3 || len(doc.Rows) != 2 || len(doc.Pages) != 2 {
		t.Fatalf("unexpected group counts: tokens=%d rows=%d pages=%d", len(doc.Tokens), len(doc.Rows), len(doc.Pages))
	}

	for i, want := range []string{"Hello", "world", "Bye"} {
		span := doc.Tokens[i].Spans[0]
		if got := runeSlice(doc.Symbols, span); got != want {
			t.Errorf("token %d: got %q, want %q", i, got, want)
		}
		if doc.Tokens[i].ID != i {
			t.Errorf("token %d: id %d", i, doc.Tokens[i].ID)
		}
	}
	if got := runeSlice(doc.Symbols, doc.Rows[0].Spans[0]); got != "Hello world" {
		t.Errorf("row 0: got %q", got)
	}
	if got := runeSlice(doc.Symbols, doc.Pages[1].Spans[0]); got != "Bye" {
		t.Errorf("page 1: got %q", got)
	}

	hello := doc.Tokens[0].Spans[0].Box
	assertBox(t, "hello", *hello, models.Box{Left: 0.1, Top: 0.1, Width: 0.25, Height: 0.05, Page: 0})
	row := doc.Rows[0].Spans[0].Box
	assertBox(t, "row 0", *row, models.Box{Left: 0.1, Top: 0.1, Width: 0.55, Height: 0.05, Page: 0})
	bye := doc.Tokens[2].Spans[0].Box
	if bye.Page != 1 {
		t.Errorf("bye on page %d, want 1", bye.Page)
	}
}

func TestDecode_BlankPage(t *testing.T) {
	doc, err := Decode(strings.NewReader(pdftest.BlankPageXML))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Symbols != "" || len(doc.Tokens) != 0 || len(doc.Rows) != 0 {
		t.Fatalf("expected no symbols, got %+v", doc)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected one page, got %d", len(doc.Pages))
	}
	span := doc.Pages[0].Spans[0]
	if span.Start != 0 || span.End != 0 {
		t.Fatalf("unexpected empty page span: %+v", span)
	}
}

func TestDecode_RuneOffsets(t *testing.T) {
	const xml = `<Document>
  <pagemetrics><page><no>0</no><pagewidth>10</pagewidth><pageheight>10</pageheight></page></pagemetrics>
  <Page id="0"><Line><Word><Char BBOX="0 0 1 1">é</Char><Char BBOX="1 0 1 1">t</Char><Char BBOX="2 0 1 1">é</Char></Word><Word><Char BBOX="4 0 1 1">&amp;</Char></Word></Line></Page>
</Document>`
	doc, err := Decode(strings.NewReader(xml))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Symbols != "été &" {
		t.Fatalf("unexpected symbols: %q", doc.Symbols)
	}
	if span := doc.Tokens[1].Spans[0]; span.Start != 4 || span.End != 5 {
		t.Fatalf("expected rune offsets [4,5), got [%d,%d)", span.Start, span.End)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		xml  string
	}{
		{"not xml", "this is not xml"},
		{"missing metrics", `<Document><Page id="0"></Page></Document>`},
		{"zero size", `<Document><pagemetrics><page><no>0</no><pagewidth>0</pagewidth><pageheight>10</pageheight></page></pagemetrics><Page id="0"></Page></Document>`},
		{"bad bbox", `<Document><pagemetrics><page><no>0</no><pagewidth>10</pagewidth><pageheight>10</pageheight></page></pagemetrics><Page id="0"><Line><Word><Char BBOX="1 2 x 4">a</Char></Word></Line></Page></Document>`},
		{"short bbox", `<Document><pagemetrics><page><no>0</no><pagewidth>10</pagewidth><pageheight>10</pageheight></page></pagemetrics><Page id="0"><Line><Word><Char BBOX="1 2 3">a</Char></Word></Line></Page></Document>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.xml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func runeSlice(s string, span models.Span) string {
	r := []rune(s)
	return string(r[span.Start:span.End])
}

func assertBox(t *testing.T, name string, got, want models.Box) {
	t.Helper()
	const eps = 1e-9
	if math.Abs(got.Left-want.Left) > eps || math.Abs(got.Top-want.Top) > eps ||
		math.Abs(got.Width-want.Width) > eps || math.Abs(got.Height-want.Height) > eps || got.Page != want.Page {
		t.Errorf("%s: got %+v, want %+v", name, got, want)
	}
}
