package repository

import (
	"context"

	"github.com/citymarket/marketplace/internal/domain"
)

type CityRepository interface {
	ListActive(ctx context.Context) ([]*domain.City, error)
	GetActiveBySlug(ctx context.Context, slug string) (*domain.City, error)
	GetActiveByID(ctx context.Context, id string) (*domain.City, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.Category, error)
}
