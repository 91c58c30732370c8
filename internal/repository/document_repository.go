package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knowledge-assistant/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByIDAndUserID(id, userID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByUserID(userID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// MarkIngestionResult moves a PENDING record to a terminal status in a single
// conditional UPDATE. The WHERE clause makes the transition write-once: a
// record that already reached SUCCESS or FAILED is left untouched and the
// method reports false.
func (r *DocumentRepository) MarkIngestionResult(id uint, status model.IngestionStatus, detail string) (bool, error) {
	if !status.Terminal() {
		return false, fmt.Errorf("refusing to set non-terminal ingestion status %q", status)
	}
	res := r.db.Model(&model.Document{}).
		Where("id = ? AND ingestion_status = ?", id, model.IngestionPending).
		Updates(map[string]any{
			"ingestion_status": status,
			"ingestion_error":  detail,
		})
	if res.Error != nil {
		return false, fmt.Errorf("update ingestion status failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
