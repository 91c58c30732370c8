package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/tmc/langchaingo/schema"
)

// loadWord flattens a .docx body (paragraphs and tables, in order) into a
// single page. Word documents carry no stable page boundaries, so the whole
// body is position 0.
func loadWord(path string) ([]schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr("open docx", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, loadErr("stat docx", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, loadErr("parse docx", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			fmt.Fprintln(&sb, item)
		}
	}

	return []schema.Document{
		{
			PageContent: sb.String(),
			Metadata:    map[string]any{"page": 0},
		},
	}, nil
}
