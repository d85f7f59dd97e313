package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CityRepository struct {
	pool *pgxpool.Pool
}

func NewCityRepository(pool *pgxpool.Pool) *CityRepository {
	return &CityRepository{pool: pool}
}

func (r *CityRepository) ListActive(ctx context.Context) ([]*domain.City, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, is_active
		FROM cities
		WHERE is_active
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []*domain.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

func (r *CityRepository) GetActiveBySlug(ctx context.Context, slug string) (*domain.City, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, is_active FROM cities
		WHERE slug = $1 AND is_active`, slug)
	return scanCity(row)
}

func (r *CityRepository) GetActiveByID(ctx context.Context, id string) (*domain.City, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, is_active FROM cities
		WHERE id = $1 AND is_active`, id)
	c, err := scanCity(row)
	if err != nil && isMalformedID(err) {
		return nil, domain.ErrCityNotFound
	}
	return c, err
}

func scanCity(row rowScanner) (*domain.City, error) {
	var c domain.City
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCityNotFound
		}
		return nil, fmt.Errorf("scan city: %w", err)
	}
	return &c, nil
}

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
