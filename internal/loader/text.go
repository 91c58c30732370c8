package loader

import (
	"os"

	"github.com/tmc/langchaingo/schema"
)

// loadText reads the whole file as a single page. An empty file is still a
// valid page; whether zero resulting chunks count as a failure is decided
// upstream.
func loadText(path string) ([]schema.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErr("read text file", err)
	}
	return []schema.Document{
		{
			PageContent: string(raw),
			Metadata:    map[string]any{"page": 0},
		},
	}, nil
}
