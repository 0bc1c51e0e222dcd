package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-school-api/internal/models"
)

// TermRepository persists academic terms.
type TermRepository interface {
	List(ctx context.Context) ([]models.Term, error)
	GetByID(ctx context.Context, id uint) (models.Term, error)
	Create(ctx context.Context, term *models.Term) error
}

type termRepository struct {
	db *gorm.DB
}

// NewTermRepository instantiates a GORM-backed repository.
func NewTermRepository(db *gorm.DB) TermRepository {
	return &termRepository{db: db}
}

func (r *termRepository) List(ctx context.Context) ([]models.Term, error) {
	var terms []models.Term
	if err := r.db.WithContext(ctx).Order("starts_at DESC").Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *termRepository) GetByID(ctx context.Context, id uint) (models.Term, error) {
	var term models.Term
	if err := r.db.WithContext(ctx).First(&term, id).Error; err != nil {
		return models.Term{}, err
	}
	return term, nil
}

func (r *termRepository) Create(ctx context.Context, term *models.Term) error {
	return r.db.WithContext(ctx).Create(term).Error
}
