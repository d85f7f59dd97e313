package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/gin-gonic/gin"
)

type cityUsecaser interface {
	ListCities(ctx context.Context) ([]*domain.City, error)
	GetCity(ctx context.Context, slug string) (*domain.City, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type CityHandler struct {
	cityUsecase cityUsecaser
	logger      *slog.Logger
}

func NewCityHandler(cityUsecase cityUsecaser, logger *slog.Logger) *CityHandler {
	return &CityHandler{cityUsecase: cityUsecase, logger: logger.With("component", "city_handler")}
}

func toCity(c *domain.City) cityResponse {
	return cityResponse{ID: c.ID, Name: c.Name, Slug: c.Slug, IsActive: c.IsActive}
}

// GET /cities
func (h *CityHandler) List(c *gin.Context) {
	cities, err := h.cityUsecase.ListCities(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list cities", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]cityResponse, len(cities))
	for i, city := range cities {
		resp[i] = toCity(city)
	}
	c.JSON(http.StatusOK, resp)
}

// GET /cities/:slug
func (h *CityHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")

	city, err := h.cityUsecase.GetCity(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errCityNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get city", "slug", slug, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toCity(city))
}

// GET /categories
func (h *CityHandler) ListCategories(c *gin.Context) {
	categories, err := h.cityUsecase.ListCategories(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, cat := range categories {
		resp[i] = categoryResponse{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}
	}
	c.JSON(http.StatusOK, resp)
}
