// Package document renders flattened lesson plans into downloadable
// artifacts and stores them.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

var ErrRender = errors.New("document: render failed")

type Renderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
	ContentType() string
	Extension() string
}

// PDFRenderer lays text out line by line in Helvetica 10/12 under a fixed
// "Lesson Plan" header.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return "pdf" }

func (r *PDFRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(HeaderText, false)
	pdf.SetFont("Helvetica", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	wrap := func(line string) []string {
		return pdf.SplitText(tr(strings.TrimRight(line, " \t")), textWidth)
	}
	for _, pg := range paginate(text, wrap) {
		pdf.AddPage()
		if pg.header {
			pdf.SetFont("Helvetica", "", 12)
			pdf.Text(marginLeft, headerY, HeaderText)
			pdf.SetFont("Helvetica", "", fontSize)
		}
		y := pg.startY
		for _, line := range pg.lines {
			if line != "" {
				pdf.Text(marginLeft, y, line)
			}
			y += leading
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}
