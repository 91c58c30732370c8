package ingest

import (
	"strings"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 150
)

// chunkSeparators is the priority order tried when splitting: paragraph
// break, line break, sentence-ending punctuation, comma, space, and finally a
// hard character cut.
var chunkSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

// Chunker splits page text into overlapping, size-bounded chunks. Splitting
// recurses from the coarsest separator to finer ones only while a segment
// still exceeds the chunk size, so output is stable for identical input.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewChunker(chunkSize, chunkOverlap int) Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators(chunkSeparators),
		),
	}
}

// Split chunks each page in order, carrying page metadata onto every chunk.
// Whitespace-only chunks are dropped; the result may be empty.
func (c Chunker) Split(pages []schema.Document) ([]schema.Document, error) {
	chunks, err := textsplitter.SplitDocuments(c.splitter, pages)
	if err != nil {
		return nil, err
	}

	out := make([]schema.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.PageContent) == "" {
			continue
		}
		out = append(out, chunk)
	}
	return out, nil
}
