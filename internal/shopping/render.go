package shopping

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	// Title heads every generated list.
	Title = "Список покупок"

	fontFamily   = "goregular"
	titleSize    = 20
	lineSize     = 14
	marginLeft   = 20.0
	titleTop     = 25.0
	firstLineTop = 45.0
	lineHeight   = 10.0
	bottomMargin = 277.0
)

// documentDate is stamped on every document so that equal inputs produce
// byte-identical output.
var documentDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Lines formats items as numbered list entries.
func Lines(items []Item) []string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s - %d %s", i+1, item.Name, item.Amount, item.MeasurementUnit))
	}
	return lines
}

// Render lays out items on A4 pages under the list title and returns the PDF.
func Render(items []Item) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(documentDate)
	pdf.SetModificationDate(documentDate)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(Title, true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", titleSize)
	pdf.Text(marginLeft, titleTop, Title)

	pdf.SetFont(fontFamily, "", lineSize)
	y := firstLineTop
	for _, line := range Lines(items) {
		if y > bottomMargin {
			pdf.AddPage()
			y = titleTop
		}
		pdf.Text(marginLeft, y, line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render shopping list: %w", err)
	}
	return buf.Bytes(), nil
}
