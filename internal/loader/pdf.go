package loader

import (
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/schema"
)

// loadPDF extracts plain text page by page so positional metadata survives
// chunking. Pages without extractable text are kept out of the result but do
// not shift the page numbering.
func loadPDF(path string) ([]schema.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, loadErr("open pdf", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]schema.Document, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, loadErr("extract pdf page text", err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, schema.Document{
			PageContent: text,
			Metadata:    map[string]any{"page": i},
		})
	}
	return pages, nil
}
