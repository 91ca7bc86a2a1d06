package models

// Box is a bounding box normalized by the page size, so every coordinate lies in [0, 1].
// Page is 0-based.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page"`
}

// Union returns the smallest box covering both b and other. Both boxes must be on the same page.
func (b Box) Union(other Box) Box {
	left := min(b.Left, other.Left)
	top := min(b.Top, other.Top)
	right := max(b.Left+b.Width, other.Left+other.Width)
	bottom := max(b.Top+b.Height, other.Top+other.Height)
	return Box{Left: left, Top: top, Width: right - left, Height: bottom - top, Page: b.Page}
}

// Span is a half-open [Start, End) range of rune offsets into Document.Symbols.
type Span struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Box   *Box `json:"box,omitempty"`
}

// SpanGroup is one layout unit (page, row or token) made of one or more spans.
type SpanGroup struct {
	ID    int    `json:"id"`
	Spans []Span `json:"spans"`
}

// Document is the symbol/layout tree produced by the symbol extractor.
// It lives for the duration of a single prediction and is augmented with
// page images before being serialized.
type Document struct {
	Symbols string      `json:"symbols"`
	Pages   []SpanGroup `json:"pages"`
	Rows    []SpanGroup `json:"rows"`
	Tokens  []SpanGroup `json:"tokens"`
	Images  []string    `json:"images,omitempty"`
}

// ToPrediction serializes the document into the response shape.
// Images are only carried over when withImages is set.
func (d *Document) ToPrediction(withImages bool) Prediction {
	p := Prediction{
		Symbols: d.Symbols,
		Pages:   nonNil(d.Pages),
		Rows:    nonNil(d.Rows),
		Tokens:  nonNil(d.Tokens),
	}
	if withImages {
		p.Images = d.Images
	}
	return p
}

func nonNil(groups []SpanGroup) []SpanGroup {
	if groups == nil {
		return []SpanGroup{}
	}
	return groups
}
