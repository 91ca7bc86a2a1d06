package sscraper

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Lllllllleong/symbolscraperpredictor/internal/models"
)

// These structs mirror the XML written by SymbolScraper.
type xmlDocument struct {
	XMLName     xml.Name        `xml:"Document"`
	PageMetrics []xmlPageMetric `xml:"pagemetrics>page"`
	Pages       []xmlPage       `xml:"Page"`
}

type xmlPageMetric struct {
	Number int     `xml:"no"`
	Width  float64 `xml:"pagewidth"`
	Height float64 `xml:"pageheight"`
}

type xmlPage struct {
	ID    int       `xml:"id,attr"`
	Lines []xmlLine `xml:"Line"`
}

type xmlLine struct {
	Words []xmlWord `xml:"Word"`
}

type xmlWord struct {
	Chars []xmlChar `xml:"Char"`
}

type xmlChar struct {
	BBox string `xml:"BBOX,attr"`
	Text string `xml:",chardata"`
}

// Decode reads a SymbolScraper XML document and builds the symbol/layout tree.
//
// Words inside a line are joined by a single space and lines are joined by a
// newline. Every word becomes a token, every non-empty line a row and every
// page a page span group. Boxes are normalized by the page size.
func Decode(r io.Reader) (*models.Document, error) {
	var raw xmlDocument
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode sscraper xml: %w", err)
	}

	metrics := make(map[int]xmlPageMetric, len(raw.PageMetrics))
	for _, m := range raw.PageMetrics {
		metrics[m.Number] = m
	}

	b := &docBuilder{
		doc: &models.Document{
			Pages:  []models.SpanGroup{},
			Rows:   []models.SpanGroup{},
			Tokens: []models.SpanGroup{},
		},
	}
	for _, page := range raw.Pages {
		m, ok := metrics[page.ID]
		if !ok {
			return nil, fmt.Errorf("no page metrics for page %d", page.ID)
		}
		if m.Width <= 0 || m.Height <= 0 {
			return nil, fmt.Errorf("invalid page size %gx%g for page %d", m.Width, m.Height, page.ID)
		}
		if err := b.addPage(page, m); err != nil {
			return nil, err
		}
	}
	b.doc.Symbols = b.symbols.String()
	return b.doc, nil
}

type docBuilder struct {
	doc     *models.Document
	symbols strings.Builder
	pos     int // in runes
}

func (b *docBuilder) write(s string) {
	b.symbols.WriteString(s)
	b.pos += utf8.RuneCountInString(s)
}

func (b *docBuilder) addPage(page xmlPage, m xmlPageMetric) error {
	pageStart := -1
	for _, line := range page.Lines {
		rowStart := -1
		var rowBox models.Box
		for _, word := range line.Words {
			text, box, err := decodeWord(word, page.ID, m)
			if err != nil {
				return err
			}
			if text == "" {
				continue
			}
			switch {
			case rowStart >= 0:
				b.write(" ")
			case len(b.doc.Rows) > 0:
				b.write("\n")
			}
			start := b.pos
			b.write(text)
			b.doc.Tokens = append(b.doc.Tokens, models.SpanGroup{
				ID:    len(b.doc.Tokens),
				Spans: []models.Span{{Start: start, End: b.pos, Box: &box}},
			})
			if rowStart < 0 {
				rowStart = start
				rowBox = box
			} else {
				rowBox = rowBox.Union(box)
			}
		}
		if rowStart < 0 {
			continue
		}
		if pageStart < 0 {
			pageStart = rowStart
		}
		b.doc.Rows = append(b.doc.Rows, models.SpanGroup{
			ID:    len(b.doc.Rows),
			Spans: []models.Span{{Start: rowStart, End: b.pos, Box: &rowBox}},
		})
	}

	if pageStart < 0 {
		pageStart = b.pos
	}
	b.doc.Pages = append(b.doc.Pages, models.SpanGroup{
		ID: len(b.doc.Pages),
		Spans: []models.Span{{
			Start: pageStart,
			End:   b.pos,
			Box:   &models.Box{Left: 0, Top: 0, Width: 1, Height: 1, Page: page.ID},
		}},
	})
	return nil
}

func decodeWord(word xmlWord, pageID int, m xmlPageMetric) (string, models.Box, error) {
	var text strings.Builder
	var box models.Box
	seen := false
	for _, c := range word.Chars {
		if c.Text == "" {
			continue
		}
		cb, err := parseBBox(c.BBox, pageID, m)
		if err != nil {
			return "", models.Box{}, err
		}
		if seen {
			box = box.Union(cb)
		} else {
			box = cb
			seen = true
		}
		text.WriteString(c.Text)
	}
	return text.String(), box, nil
}

// parseBBox turns "x y w h" in page points into a normalized box.
func parseBBox(s string, pageID int, m xmlPageMetric) (models.Box, error) {
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return models.Box{}, fmt.Errorf("malformed BBOX %q on page %d", s, pageID)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.Box{}, fmt.Errorf("malformed BBOX %q on page %d: %w", s, pageID, err)
		}
		v[i] = n
	}
	return models.Box{
		Left:   v[0] / m.Width,
		Top:    v[1] / m.Height,
		Width:  v[2] / m.Width,
		Height: v[3] / m.Height,
		Page:   pageID,
	}, nil
}
