package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pressroom-cms/models"
	"pressroom-cms/repositories"
)

var ErrAuthorNotFound = errors.New("author not found")

type AuthorService interface {
	Create(ctx context.Context, req models.CreateAuthorRequest) (*models.Author, error)
	Get(ctx context.Context, id uint) (*models.Author, error)
	GetAll(ctx context.Context) ([]models.Author, error)
	Update(ctx context.Context, id uint, req models.UpdateAuthorRequest) (*models.Author, error)
	Delete(ctx context.Context, id uint) error
}

type authorService struct {
	authors repositories.AuthorRepository
	cache   *AuthorCache
}

func NewAuthorService(authors repositories.AuthorRepository, cache *AuthorCache) AuthorService {
	return &authorService{authors: authors, cache: cache}
}

func (s *authorService) Create(ctx context.Context, req models.CreateAuthorRequest) (*models.Author, error) {
	author := &models.Author{
		Name:      req.Name,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	}
	if err := s.authors.Create(author); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, author.ID)
	return author, nil
}

func (s *authorService) Get(ctx context.Context, id uint) (*models.Author, error) {
	authors, err := s.cache.GetMany(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	if len(authors) == 0 {
		return nil, ErrAuthorNotFound
	}
	return &authors[0], nil
}

func (s *authorService) GetAll(ctx context.Context) ([]models.Author, error) {
	return s.authors.GetAll()
}

func (s *authorService) Update(ctx context.Context, id uint, req models.UpdateAuthorRequest) (*models.Author, error) {
	author, err := s.authors.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, err
	}

	author.Name = req.Name
	author.Bio = req.Bio
	author.AvatarURL = req.AvatarURL
	if err := s.authors.Update(author); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, author.ID)
	return author, nil
}

func (s *authorService) Delete(ctx context.Context, id uint) error {
	if _, err := s.authors.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAuthorNotFound
		}
		return err
	}
	if err := s.authors.Delete(id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}
