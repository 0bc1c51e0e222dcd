package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-school-api/internal/dto"
	"github.com/noah-isme/gema-school-api/internal/models"
	"github.com/noah-isme/gema-school-api/internal/repository"
)

// TermService manages academic terms.
type TermService interface {
	List(ctx context.Context) ([]dto.TermResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.TermCreateRequest) (dto.TermResponse, error)
}

type termService struct {
	repo      repository.TermRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewTermService builds a term service.
func NewTermService(repo repository.TermRepository, validate *validator.Validate, logger zerolog.Logger) TermService {
	return &termService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "term_service").Logger(),
	}
}

func (s *termService) List(ctx context.Context) ([]dto.TermResponse, error) {
	terms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewTermResponseSlice(terms), nil
}

func (s *termService) Create(ctx context.Context, actor Actor, payload dto.TermCreateRequest) (dto.TermResponse, error) {
	if !actor.IsAdmin() {
		return dto.TermResponse{}, ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.TermResponse{}, err
	}

	term := models.Term{
		Name:     strings.TrimSpace(payload.Name),
		StartsAt: payload.StartsAt.UTC(),
		EndsAt:   payload.EndsAt.UTC(),
	}
	if err := s.repo.Create(ctx, &term); err != nil {
		return dto.TermResponse{}, err
	}

	s.logger.Info().Uint("term_id", term.ID).Msg("term created")
	return dto.NewTermResponse(term), nil
}
