package pipeline

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfPageTexts extracts the plain text of every page. Pages without an
// extractable text layer come back empty and are reported upstream.
func pdfPageTexts(blob []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
