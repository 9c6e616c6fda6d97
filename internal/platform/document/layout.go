package document

import "strings"

// Page geometry in points, US Letter with a top-left origin.
const (
	pageWidth  = 612.0
	pageHeight = 792.0

	marginLeft  = 100.0
	marginRight = 50.0
	textWidth   = pageWidth - marginLeft - marginRight

	headerY    = 42.0
	firstLineY = 62.0
	topY       = 50.0
	bottomY    = pageHeight - 36.0

	fontSize = 10.0
	leading  = 12.0

	HeaderText = "Lesson Plan"
)

type page struct {
	header bool
	startY float64
	lines  []string
}

// paginate wraps each input line to the text width and cuts pages once the
// next baseline would cross the bottom margin. Only the first page carries
// the header.
func paginate(text string, wrap func(string) []string) []page {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	pages := []page{{header: true, startY: firstLineY}}
	cur := &pages[0]
	y := cur.startY

	for _, raw := range strings.Split(text, "\n") {
		wrapped := []string{""}
		if strings.TrimSpace(raw) != "" {
			wrapped = wrap(raw)
		}
		for _, line := range wrapped {
			if y > bottomY {
				pages = append(pages, page{startY: topY})
				cur = &pages[len(pages)-1]
				y = cur.startY
			}
			cur.lines = append(cur.lines, line)
			y += leading
		}
	}
	return pages
}
