package repositories

import (
	"pressroom-cms/models"

	"gorm.io/gorm"
)

type DraftRepository interface {
	WithTx(tx *gorm.DB) DraftRepository
	Create(draft *models.Draft) error
	GetByID(id uint) (*models.Draft, error)
	GetByPublishedID(publishedID uint) (*models.Draft, error)
	GetList(params models.ListParams) ([]models.Draft, int64, error)
	Update(draft *models.Draft) error
	Delete(id uint) error
	ReplaceAuthors(draftID uint, authorIDs []uint) error
	GetAuthorIDs(draftID uint) ([]uint, error)
}

type draftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) WithTx(tx *gorm.DB) DraftRepository {
	return &draftRepository{db: tx}
}

func (r *draftRepository) Create(draft *models.Draft) error {
	return r.db.Create(draft).Error
}

func (r *draftRepository) GetByID(id uint) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.First(&draft, id).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) GetByPublishedID(publishedID uint) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.Where("published_id = ?", publishedID).First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) GetList(params models.ListParams) ([]models.Draft, int64, error) {
	var drafts []models.Draft
	var total int64

	query := r.db.Model(&models.Draft{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	err := query.Order("updated_at desc").Offset(offset).Limit(params.Limit).Find(&drafts).Error
	return drafts, total, err
}

func (r *draftRepository) Update(draft *models.Draft) error {
	return r.db.Save(draft).Error
}

func (r *draftRepository) Delete(id uint) error {
	if err := r.db.Where("draft_id = ?", id).Delete(&models.DraftAuthor{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Draft{}, id).Error
}

// ReplaceAuthors swaps the full ordered author set of a draft. Position keeps
// the byline order.
func (r *draftRepository) ReplaceAuthors(draftID uint, authorIDs []uint) error {
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftAuthor{}).Error; err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return nil
	}

	rows := make([]models.DraftAuthor, 0, len(authorIDs))
	for i, authorID := range authorIDs {
		rows = append(rows, models.DraftAuthor{DraftID: draftID, AuthorID: authorID, Position: i})
	}
	return r.db.Create(&rows).Error
}

func (r *draftRepository) GetAuthorIDs(draftID uint) ([]uint, error) {
	var rows []models.DraftAuthor
	err := r.db.Where("draft_id = ?", draftID).Order("position asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AuthorID)
	}
	return ids, nil
}
