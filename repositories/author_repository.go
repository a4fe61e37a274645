package repositories

import (
	"pressroom-cms/models"

	"gorm.io/gorm"
)

type AuthorRepository interface {
	Create(author *models.Author) error
	GetByID(id uint) (*models.Author, error)
	GetByIDs(ids []uint) ([]models.Author, error)
	GetAll() ([]models.Author, error)
	Update(author *models.Author) error
	Delete(id uint) error
}

type authorRepository struct {
	db *gorm.DB
}

func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(author *models.Author) error {
	return r.db.Create(author).Error
}

func (r *authorRepository) GetByID(id uint) (*models.Author, error) {
	var author models.Author
	err := r.db.First(&author, id).Error
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *authorRepository) GetByIDs(ids []uint) ([]models.Author, error) {
	var authors []models.Author
	err := r.db.Where("id IN ?", ids).Find(&authors).Error
	return authors, err
}

func (r *authorRepository) GetAll() ([]models.Author, error) {
	var authors []models.Author
	err := r.db.Order("name asc").Find(&authors).Error
	return authors, err
}

func (r *authorRepository) Update(author *models.Author) error {
	return r.db.Save(author).Error
}

func (r *authorRepository) Delete(id uint) error {
	return r.db.Delete(&models.Author{}, id).Error
}
