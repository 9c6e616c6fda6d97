package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// PreviewRenderer draws the first page of a plan as a PNG, using the same
// page geometry as the PDF.
type PreviewRenderer struct {
	scale  float64
	body   font.Face
	header font.Face
}

func NewPreviewRenderer(scale float64) (*PreviewRenderer, error) {
	if scale <= 0 {
		scale = 1
	}
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse preview font: %w", err)
	}
	return &PreviewRenderer{
		scale:  scale,
		body:   truetype.NewFace(parsed, &truetype.Options{Size: fontSize * scale, DPI: 72, Hinting: font.HintingNone}),
		header: truetype.NewFace(parsed, &truetype.Options{Size: 12 * scale, DPI: 72, Hinting: font.HintingNone}),
	}, nil
}

func (r *PreviewRenderer) ContentType() string { return "image/png" }
func (r *PreviewRenderer) Extension() string   { return "png" }

func (r *PreviewRenderer) Render(ctx context.Context, text string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	s := r.scale
	dc := gg.NewContext(int(pageWidth*s), int(pageHeight*s))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	dc.SetFontFace(r.body)
	wrap := func(line string) []string {
		return dc.WordWrap(strings.TrimRight(line, " \t"), textWidth*s)
	}
	pages := paginate(text, wrap)
	first := pages[0]

	dc.SetFontFace(r.header)
	dc.DrawString(HeaderText, marginLeft*s, headerY*s)
	dc.SetFontFace(r.body)
	y := first.startY
	for _, line := range first.lines {
		if line != "" {
			dc.DrawString(line, marginLeft*s, y*s)
		}
		y += leading
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}
