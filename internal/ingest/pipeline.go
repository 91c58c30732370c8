// Package ingest orchestrates one document's journey from uploaded file to
// stored vectors: load, chunk, enrich, embed, upsert, status update. A run
// executes detached from any request, so failures never propagate to a
// caller; they end as a FAILED status on the document record.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/schema"

	"knowledge-assistant/internal/loader"
	"knowledge-assistant/internal/model"
	"knowledge-assistant/internal/vectorstore"
)

const defaultEmbeddingBatchSize = 10

// DocumentStore is the slice of the metadata store the pipeline needs.
type DocumentStore interface {
	GetByID(id uint) (*model.Document, error)
	// MarkIngestionResult transitions PENDING to the given terminal status
	// atomically. It reports false when the record was already terminal.
	MarkIngestionResult(id uint, status model.IngestionStatus, detail string) (bool, error)
}

// Embedder converts chunk texts into fixed-dimension vectors, one per input,
// order preserved.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorUpserter persists vector records into a named collection,
// all-or-nothing per call.
type VectorUpserter interface {
	Upsert(ctx context.Context, collection string, records []vectorstore.Record) error
}

// Pipeline runs ingestion for one document at a time. Safe for concurrent
// use across distinct documents.
type Pipeline struct {
	docs      DocumentStore
	embedder  Embedder
	store     VectorUpserter
	chunker   Chunker
	mediaRoot string
	batchSize int
	onStatus  func(documentID uint, status model.IngestionStatus)
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithChunking overrides the default chunk size and overlap.
func WithChunking(chunkSize, chunkOverlap int) Option {
	return func(p *Pipeline) {
		p.chunker = NewChunker(chunkSize, chunkOverlap)
	}
}

// WithEmbeddingBatchSize bounds how many chunk texts go into a single
// embedding call. Providers often cap batch sizes.
func WithEmbeddingBatchSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.batchSize = size
		}
	}
}

// WithStatusListener registers a hook invoked after each terminal status
// transition, e.g. to drop a cached status.
func WithStatusListener(fn func(documentID uint, status model.IngestionStatus)) Option {
	return func(p *Pipeline) {
		p.onStatus = fn
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPipeline(docs DocumentStore, embedder Embedder, store VectorUpserter, mediaRoot string, opts ...Option) *Pipeline {
	p := &Pipeline{
		docs:      docs,
		embedder:  embedder,
		store:     store,
		chunker:   NewChunker(DefaultChunkSize, DefaultChunkOverlap),
		mediaRoot: mediaRoot,
		batchSize: defaultEmbeddingBatchSize,
		logger:    slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the ingestion state machine for one document:
// PENDING -> SUCCESS or PENDING -> FAILED, exactly once. It never returns an
// error; every failure, including a panic in a parsing library, is converted
// into the FAILED transition and logged.
func (p *Pipeline) Run(ctx context.Context, documentID uint) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("ingestion run panicked", "document_id", documentID, "panic", r)
			p.fail(documentID, fmt.Errorf("%w: panic: %v", ErrUnexpected, r))
		}
	}()

	doc, err := p.docs.GetByID(documentID)
	if err != nil {
		p.logger.Error("load document record failed", "document_id", documentID, "err", err)
		return
	}
	if doc == nil {
		p.logger.Warn("document record not found", "document_id", documentID)
		return
	}
	if doc.IngestionStatus.Terminal() {
		p.logger.Warn("document already in terminal status, skipping",
			"document_id", doc.ID, "status", doc.IngestionStatus)
		return
	}

	pages, err := loader.Load(filepath.Join(p.mediaRoot, doc.FileReference))
	if err != nil {
		p.fail(doc.ID, err)
		return
	}

	chunks, err := p.chunker.Split(pages)
	if err != nil {
		p.fail(doc.ID, fmt.Errorf("%w: split pages: %v", ErrUnexpected, err))
		return
	}
	chunks = EnrichMetadata(chunks, doc)

	// An empty or whitespace-only file yields zero chunks. That counts as a
	// successful ingestion with nothing to store.
	if len(chunks) == 0 {
		p.logger.Info("document produced no chunks", "document_id", doc.ID, "title", doc.Title)
		p.succeed(doc.ID)
		return
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		p.fail(doc.ID, fmt.Errorf("%w: %v", ErrEmbeddingService, err))
		return
	}

	records := make([]vectorstore.Record, len(chunks))
	for i := range chunks {
		records[i] = vectorstore.Record{
			ID:       uuid.NewString(),
			Vector:   vectors[i],
			Text:     chunks[i].PageContent,
			Metadata: flattenMetadata(chunks[i].Metadata),
		}
	}

	collection := vectorstore.UserCollection(doc.UserID)
	if err := p.store.Upsert(ctx, collection, records); err != nil {
		p.fail(doc.ID, fmt.Errorf("%w: %v", ErrStoreWrite, err))
		return
	}

	p.logger.Info("document ingested",
		"document_id", doc.ID, "title", doc.Title,
		"collection", collection, "chunks", len(records))
	p.succeed(doc.ID)
}

func (p *Pipeline) embedChunks(ctx context.Context, chunks []schema.Document) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].PageContent
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += p.batchSize {
		end := i + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))
	}
	return vectors, nil
}

func (p *Pipeline) succeed(documentID uint) {
	p.mark(documentID, model.IngestionSuccess, "")
}

func (p *Pipeline) fail(documentID uint, cause error) {
	p.logger.Error("ingestion failed", "document_id", documentID, "err", cause)
	p.mark(documentID, model.IngestionFailed, cause.Error())
}

func (p *Pipeline) mark(documentID uint, status model.IngestionStatus, detail string) {
	updated, err := p.docs.MarkIngestionResult(documentID, status, detail)
	if err != nil {
		p.logger.Error("record ingestion result failed",
			"document_id", documentID, "status", status, "err", err)
		return
	}
	if !updated {
		// Already terminal; the transition is write-once so we leave it be.
		p.logger.Warn("ingestion result dropped, document no longer pending",
			"document_id", documentID, "status", status)
		return
	}
	if p.onStatus != nil {
		p.onStatus(documentID, status)
	}
}
