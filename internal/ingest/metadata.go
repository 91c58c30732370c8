package ingest

import (
	"fmt"

	"github.com/tmc/langchaingo/schema"

	"knowledge-assistant/internal/model"
)

// Metadata keys attached to every chunk for retrieval-time citation.
const (
	MetaSourceFile = "source_file"
	MetaDocumentID = "document_id"
	MetaOwnerID    = "owner_id"
	MetaPage       = "page"
)

// EnrichMetadata stamps provenance onto each chunk without touching its
// text. Idempotent: re-applying overwrites the same keys with the same
// values.
func EnrichMetadata(chunks []schema.Document, doc *model.Document) []schema.Document {
	for i := range chunks {
		if chunks[i].Metadata == nil {
			chunks[i].Metadata = make(map[string]any, 4)
		}
		chunks[i].Metadata[MetaSourceFile] = doc.Title
		chunks[i].Metadata[MetaDocumentID] = doc.ID
		chunks[i].Metadata[MetaOwnerID] = doc.UserID
	}
	return chunks
}

// flattenMetadata renders chunk metadata into the string map the vector
// store persists.
func flattenMetadata(meta map[string]any) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = fmt.Sprint(v)
	}
	return out
}
