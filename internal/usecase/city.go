package usecase

import (
	"context"
	"fmt"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/repository"
)

type CityUsecase struct {
	cities     repository.CityRepository
	categories repository.CategoryRepository
}

func NewCityUsecase(cities repository.CityRepository, categories repository.CategoryRepository) *CityUsecase {
	return &CityUsecase{cities: cities, categories: categories}
}

func (u *CityUsecase) ListCities(ctx context.Context) ([]*domain.City, error) {
	cities, err := u.cities.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (u *CityUsecase) GetCity(ctx context.Context, slug string) (*domain.City, error) {
	c, err := u.cities.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get city: %w", err)
	}
	return c, nil
}

func (u *CityUsecase) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := u.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
