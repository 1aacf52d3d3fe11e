package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned for bytes that do not carry the PDF signature.
var ErrNotPDF = errors.New("pdf: missing %PDF- signature")

// PDFInfo summarises an exported document.
type PDFInfo struct {
	Pages int
	// Width and Height are the first page's MediaBox in points.
	Width, Height float64
}

// A4 in points, within a few points of Chrome's inch-based rounding.
const (
	a4WidthPt  = 595.28
	a4HeightPt = 841.89
	a4TolPt    = 3.0
)

// IsA4 reports whether the first page is A4 portrait.
func (i PDFInfo) IsA4() bool {
	return math.Abs(i.Width-a4WidthPt) <= a4TolPt && math.Abs(i.Height-a4HeightPt) <= a4TolPt
}

// InspectPDF parses b and reports its page count and first page size.
func InspectPDF(b []byte) (PDFInfo, error) {
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		return PDFInfo{}, ErrNotPDF
	}
	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return PDFInfo{}, fmt.Errorf("pdf: parse: %w", err)
	}
	info := PDFInfo{Pages: r.NumPage()}
	if info.Pages < 1 {
		return info, errors.New("pdf: document has no pages")
	}
	box := mediaBox(r.Page(1).V)
	if box.Len() == 4 {
		info.Width = box.Index(2).Float64() - box.Index(0).Float64()
		info.Height = box.Index(3).Float64() - box.Index(1).Float64()
	}
	return info, nil
}

// mediaBox looks the key up on the page and then its ancestors, since the
// page tree may define it once for all pages.
func mediaBox(v pdf.Value) pdf.Value {
	for depth := 0; depth < 32 && v.Kind() == pdf.Dict; depth++ {
		if box := v.Key("MediaBox"); box.Kind() == pdf.Array {
			return box
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}
