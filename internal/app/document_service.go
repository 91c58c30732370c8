package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"knowledge-assistant/internal/model"
)

var ErrDocumentNotFound = errors.New("document not found")

// uploadsDir is the subdirectory of the media root holding raw files.
const uploadsDir = "documents"

// DocumentRepo is the slice of the metadata store the service needs.
type DocumentRepo interface {
	Create(doc *model.Document) error
	GetByIDAndUserID(id, userID uint) (*model.Document, error)
	ListByUserID(userID uint) ([]model.Document, error)
}

// Submitter hands a job off for background execution without a handle.
type Submitter interface {
	Submit(job func()) error
}

// IngestRunner runs the ingestion pipeline for one document.
type IngestRunner interface {
	Run(ctx context.Context, documentID uint)
}

// DocumentCache is an optional read-through cache for document records.
type DocumentCache interface {
	Get(ctx context.Context, documentID uint) (*model.Document, bool, error)
	Set(ctx context.Context, doc *model.Document) error
}

// DocumentService is the entry point for uploads: it persists the raw file,
// creates the PENDING record, and schedules ingestion without blocking the
// caller.
type DocumentService struct {
	docs      DocumentRepo
	pipeline  IngestRunner
	submitter Submitter
	cache     DocumentCache
	mediaRoot string
	logger    *slog.Logger
}

func NewDocumentService(docs DocumentRepo, pipeline IngestRunner, submitter Submitter, cache DocumentCache, mediaRoot string) *DocumentService {
	return &DocumentService{
		docs:      docs,
		pipeline:  pipeline,
		submitter: submitter,
		cache:     cache,
		mediaRoot: mediaRoot,
		logger:    slog.Default().With("component", "documents"),
	}
}

type UploadInput struct {
	UserID   uint
	Filename string
	File     io.Reader
}

// Upload persists the raw upload under the media root, creates the document
// record with status PENDING, and submits the ingestion run. The record is
// committed before the run can observe anything, so PENDING is always
// visible first. Whether the run ever executes is not guaranteed.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	if input.UserID == 0 || input.File == nil {
		return nil, ErrInvalidInput
	}
	title := filepath.Base(strings.TrimSpace(input.Filename))
	if title == "" || title == "." {
		return nil, ErrInvalidInput
	}

	ref, err := s.persistFile(title, input.File)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		UserID:          input.UserID,
		Title:           title,
		FileReference:   ref,
		IngestionStatus: model.IngestionPending,
	}
	if err := s.docs.Create(doc); err != nil {
		// No record means nothing will ever reference the stored file.
		_ = os.Remove(filepath.Join(s.mediaRoot, ref))
		return nil, err
	}

	documentID := doc.ID
	if err := s.submitter.Submit(func() {
		// Detached from the request; the pipeline owns all error handling.
		s.pipeline.Run(context.Background(), documentID)
	}); err != nil {
		// The record stays PENDING. Fire-and-forget has no delivery
		// guarantee; a durable queue is the production answer.
		s.logger.Error("schedule ingestion failed", "document_id", documentID, "err", err)
	}

	return doc, nil
}

// persistFile writes the upload to a fresh name under the media root and
// returns the reference relative to it. The original extension is kept for
// loader dispatch.
func (s *DocumentService) persistFile(filename string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ref := filepath.Join(uploadsDir, uuid.NewString()+ext)

	full := filepath.Join(s.mediaRoot, ref)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir failed: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file failed: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("write upload file failed: %w", err)
	}
	return ref, nil
}

// List returns the user's documents, newest first.
func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(userID)
}

// Get returns one of the user's documents, reading through the cache when
// one is configured. Cached entries are keyed by id, so ownership is checked
// on every path.
func (s *DocumentService) Get(ctx context.Context, userID, documentID uint) (*model.Document, error) {
	if userID == 0 || documentID == 0 {
		return nil, ErrInvalidInput
	}

	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, documentID); err == nil && hit {
			if cached.UserID != userID {
				return nil, ErrDocumentNotFound
			}
			return cached, nil
		}
	}

	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, doc); err != nil {
			s.logger.Warn("cache document failed", "document_id", doc.ID, "err", err)
		}
	}
	return doc, nil
}
