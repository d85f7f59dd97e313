package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/media"
	"github.com/citymarket/marketplace/internal/transport/http/middleware"
	"github.com/citymarket/marketplace/internal/usecase"
	"github.com/gin-gonic/gin"
)

type listingUsecaser interface {
	ListInCity(ctx context.Context, cityID string, f usecase.ListingFilter) ([]*domain.Listing, error)
	GetInCity(ctx context.Context, id, cityID string) (*domain.Listing, error)
	ListOwned(ctx context.Context, who domain.Identity, f usecase.ListingFilter) ([]*domain.Listing, error)
	GetOwned(ctx context.Context, who domain.Identity, id string) (*domain.Listing, error)
	Create(ctx context.Context, who domain.Identity, in usecase.ListingInput) (*domain.Listing, error)
	Update(ctx context.Context, who domain.Identity, id string, in usecase.ListingInput) (*domain.Listing, error)
	Delete(ctx context.Context, who domain.Identity, id string) error
	AddImage(ctx context.Context, who domain.Identity, id string, data []byte) (*domain.ListingImage, error)
}

type ListingHandler struct {
	listingUsecase listingUsecaser
	logger         *slog.Logger
}

func NewListingHandler(listingUsecase listingUsecaser, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listingUsecase: listingUsecase, logger: logger.With("component", "listing_handler")}
}

// listingRequest never carries userId or cityId; both come from the session.
type listingRequest struct {
	Title       string   `json:"title"       binding:"required,min=3,max=120"`
	Description string   `json:"description" binding:"required,min=10,max=5000"`
	Price       *float64 `json:"price"       binding:"required,gte=0,lte=100000000"`
	Negotiable  bool     `json:"negotiable"`
	Condition   string   `json:"condition"   binding:"required,oneof=NEW USED"`
	Status      string   `json:"status"      binding:"omitempty,oneof=ACTIVE SOLD EXPIRED REMOVED"`
	CategoryID  string   `json:"categoryId"  binding:"required"`
	Images      []string `json:"images"      binding:"omitempty,max=10,dive,url,max=2048"`
}

func (r listingRequest) toInput() usecase.ListingInput {
	return usecase.ListingInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       *r.Price,
		Negotiable:  r.Negotiable,
		Condition:   r.Condition,
		Status:      r.Status,
		CategoryID:  r.CategoryID,
		ImageURLs:   r.Images,
	}
}

func filterFromQuery(c *gin.Context) usecase.ListingFilter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return usecase.ListingFilter{
		CategoryID: c.Query("categoryId"),
		Status:     c.Query("status"),
		Limit:      limit,
		Offset:     offset,
	}
}

// GET /listings?cityId=
func (h *ListingHandler) ListInCity(c *gin.Context) {
	listings, err := h.listingUsecase.ListInCity(c.Request.Context(), c.Query("cityId"), filterFromQuery(c))
	if err != nil {
		if writeUsecaseError(c, err) {
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "list city listings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toListings(listings))
}

// GET /listings/:id?cityId=
func (h *ListingHandler) GetInCity(c *gin.Context) {
	id := c.Param("id")

	listing, err := h.listingUsecase.GetInCity(c.Request.Context(), id, c.Query("cityId"))
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errCityListingNotFound})
			return
		}
		if writeUsecaseError(c, err) {
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get city listing", "listing_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, toListing(listing))
}

// GET /user/listings
func (h *ListingHandler) ListOwned(c *gin.Context) {
	listings, err := h.listingUsecase.ListOwned(c.Request.Context(), middleware.IdentityFrom(c), filterFromQuery(c))
	if err != nil {
		h.writeOwnedError(c, "list owned listings", "", err)
		return
	}

	c.JSON(http.StatusOK, toListings(listings))
}

// GET /user/listings/:id
func (h *ListingHandler) GetOwned(c *gin.Context) {
	id := c.Param("id")

	listing, err := h.listingUsecase.GetOwned(c.Request.Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		h.writeOwnedError(c, "get owned listing", id, err)
		return
	}

	c.JSON(http.StatusOK, toListing(listing))
}

// POST /user/listings
func (h *ListingHandler) Create(c *gin.Context) {
	var req listingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingUsecase.Create(c.Request.Context(), middleware.IdentityFrom(c), req.toInput())
	if err != nil {
		h.writeOwnedError(c, "create listing", "", err)
		return
	}

	c.JSON(http.StatusCreated, toListing(listing))
}

// PUT /user/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req listingRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.listingUsecase.Update(c.Request.Context(), middleware.IdentityFrom(c), id, req.toInput())
	if err != nil {
		h.writeOwnedError(c, "update listing", id, err)
		return
	}

	c.JSON(http.StatusOK, toListing(listing))
}

// DELETE /user/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.listingUsecase.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		h.writeOwnedError(c, "delete listing", id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// POST /user/listings/:id/images (multipart field "image")
func (h *ListingHandler) AddImage(c *gin.Context) {
	id := c.Param("id")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, media.MaxImageBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errImageRequired})
		return
	}
	if fh.Size > media.MaxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": errImageTooLarge})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errImageRequired})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "read upload", "listing_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	img, err := h.listingUsecase.AddImage(c.Request.Context(), middleware.IdentityFrom(c), id, data)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrNotAnImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": errNotAnImage})
		case errors.Is(err, media.ErrUploadsDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errUploadsDisabled})
		default:
			h.writeOwnedError(c, "add listing image", id, err)
		}
		return
	}

	c.JSON(http.StatusCreated, toImage(*img))
}

// writeOwnedError maps errors from owner-scoped operations. Scope integrity
// failures are already logged by the usecase and surface as a plain 500.
func (h *ListingHandler) writeOwnedError(c *gin.Context, op, listingID string, err error) {
	switch {
	case errors.Is(err, domain.ErrListingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errListingNotFound})
	case errors.Is(err, domain.ErrScopeIntegrity):
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	default:
		if writeUsecaseError(c, err) {
			return
		}
		h.logger.ErrorContext(c.Request.Context(), op, "listing_id", listingID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
