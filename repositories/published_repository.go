package repositories

import (
	"pressroom-cms/models"

	"gorm.io/gorm"
)

type PublishedRepository interface {
	WithTx(tx *gorm.DB) PublishedRepository
	Create(record *models.Published) error
	GetByID(id uint) (*models.Published, error)
	GetList(params models.ListParams) ([]models.Published, int64, error)
	Update(record *models.Published) error
	Delete(id uint) error
	ReplaceAuthors(publishedID uint, authorIDs []uint) error
	GetAuthorIDs(publishedID uint) ([]uint, error)
}

type publishedRepository struct {
	db *gorm.DB
}

func NewPublishedRepository(db *gorm.DB) PublishedRepository {
	return &publishedRepository{db: db}
}

func (r *publishedRepository) WithTx(tx *gorm.DB) PublishedRepository {
	return &publishedRepository{db: tx}
}

func (r *publishedRepository) Create(record *models.Published) error {
	return r.db.Create(record).Error
}

func (r *publishedRepository) GetByID(id uint) (*models.Published, error) {
	var record models.Published
	err := r.db.First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *publishedRepository) GetList(params models.ListParams) ([]models.Published, int64, error) {
	var records []models.Published
	var total int64

	query := r.db.Model(&models.Published{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (params.Page - 1) * params.Limit
	err := query.Order("created_at desc").Offset(offset).Limit(params.Limit).Find(&records).Error
	return records, total, err
}

func (r *publishedRepository) Update(record *models.Published) error {
	return r.db.Save(record).Error
}

func (r *publishedRepository) Delete(id uint) error {
	if err := r.db.Where("published_id = ?", id).Delete(&models.PublishedAuthor{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.Published{}, id).Error
}

func (r *publishedRepository) ReplaceAuthors(publishedID uint, authorIDs []uint) error {
	if err := r.db.Where("published_id = ?", publishedID).Delete(&models.PublishedAuthor{}).Error; err != nil {
		return err
	}
	if len(authorIDs) == 0 {
		return nil
	}

	rows := make([]models.PublishedAuthor, 0, len(authorIDs))
	for i, authorID := range authorIDs {
		rows = append(rows, models.PublishedAuthor{PublishedID: publishedID, AuthorID: authorID, Position: i})
	}
	return r.db.Create(&rows).Error
}

func (r *publishedRepository) GetAuthorIDs(publishedID uint) ([]uint, error) {
	var rows []models.PublishedAuthor
	err := r.db.Where("published_id = ?", publishedID).Order("position asc").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AuthorID)
	}
	return ids, nil
}
