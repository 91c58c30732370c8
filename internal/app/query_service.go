package app

import (
	"context"
	"errors"
	"strings"

	"knowledge-assistant/internal/ai"
	"knowledge-assistant/internal/vectorstore"
)

const defaultQueryTopK = 5

var ErrNoKnowledge = errors.New("no ingested knowledge matches the question")

// QueryEmbedder embeds a single question the same way chunks were embedded.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher runs similarity search scoped to one collection.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, topK int, minScore float32) ([]vectorstore.SearchHit, error)
}

// Completer answers with a chat completion.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// QueryService answers questions over a user's own collection: embed the
// question, retrieve the closest chunks, and let the LLM answer from that
// context only.
type QueryService struct {
	embedder QueryEmbedder
	store    VectorSearcher
	llm      Completer
}

func NewQueryService(embedder QueryEmbedder, store VectorSearcher, llm Completer) *QueryService {
	return &QueryService{
		embedder: embedder,
		store:    store,
		llm:      llm,
	}
}

type QueryInput struct {
	UserID   uint
	Question string
	TopK     int
}

type QueryResult struct {
	Answer  string                  `json:"answer"`
	Sources []vectorstore.SearchHit `json:"sources"`
}

func (s *QueryService) Ask(ctx context.Context, input QueryInput) (*QueryResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	topK := input.TopK
	if topK <= 0 {
		topK = defaultQueryTopK
	}

	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	collection := vectorstore.UserCollection(input.UserID)
	hits, err := s.store.Search(ctx, collection, queryVec, topK, 0)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNoKnowledge
	}

	var contextBlock strings.Builder
	for _, hit := range hits {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString(hit.Record.Text)
	}
	contextBlock.WriteString("\n---")

	messages := []ai.ChatMessage{
		{
			Role:    "system",
			Content: "You are a helpful assistant. Answer the user's question based only on the following context. If the context does not contain enough information, say so. Do not make up facts.",
		},
		{
			Role:    "user",
			Content: "Context:" + contextBlock.String() + "\n\nQuestion: " + question + "\n\nAnswer:",
		},
	}

	answer, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Answer:  strings.TrimSpace(answer),
		Sources: hits,
	}, nil
}
