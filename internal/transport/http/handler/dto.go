package handler

import (
	"time"

	"github.com/citymarket/marketplace/internal/domain"
)

type sessionUserResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	CityID string `json:"cityId"`
}

type citySummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type profileResponse struct {
	ID          string               `json:"id"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone"`
	CityID      string               `json:"cityId"`
	City        *citySummaryResponse `json:"city"`
	AvatarURL   *string              `json:"avatarUrl"`
	Role        domain.Role          `json:"role"`
	IsVerified  bool                 `json:"isVerified"`
	Rating      float64              `json:"rating"`
	RatingCount int                  `json:"ratingCount"`
	CreatedAt   time.Time            `json:"createdAt"`
}

type cityResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type imageResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

type sellerResponse struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	AvatarURL   *string `json:"avatarUrl"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"ratingCount"`
}

type listingResponse struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	CityID      string               `json:"cityId"`
	CategoryID  string               `json:"categoryId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Price       float64              `json:"price"`
	Negotiable  bool                 `json:"negotiable"`
	Condition   domain.Condition     `json:"condition"`
	Status      domain.ListingStatus `json:"status"`
	Images      []imageResponse      `json:"images"`
	Category    *categoryResponse    `json:"category,omitempty"`
	Seller      *sellerResponse      `json:"user,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

func toSessionUser(u *domain.User) sessionUserResponse {
	return sessionUserResponse{ID: u.ID, Name: u.DisplayName(), Email: u.Email, CityID: u.CityID}
}

func toProfile(u *domain.User) profileResponse {
	p := profileResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Name:        u.DisplayName(),
		Email:       u.Email,
		Phone:       u.Phone,
		CityID:      u.CityID,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
		Rating:      u.Rating,
		RatingCount: u.RatingCount,
		CreatedAt:   u.CreatedAt,
	}
	if u.City != nil {
		p.City = &citySummaryResponse{ID: u.City.ID, Name: u.City.Name, Slug: u.City.Slug}
	}
	return p
}

func toImage(img domain.ListingImage) imageResponse {
	return imageResponse{ID: img.ID, URL: img.URL, Position: img.Position}
}

func toListing(l *domain.Listing) listingResponse {
	resp := listingResponse{
		ID:          l.ID,
		UserID:      l.UserID,
		CityID:      l.CityID,
		CategoryID:  l.CategoryID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Negotiable:  l.Negotiable,
		Condition:   l.Condition,
		Status:      l.Status,
		Images:      make([]imageResponse, len(l.Images)),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	for i, img := range l.Images {
		resp.Images[i] = toImage(img)
	}
	if l.Category != nil {
		resp.Category = &categoryResponse{ID: l.Category.ID, Name: l.Category.Name, Slug: l.Category.Slug}
	}
	if l.Seller != nil {
		resp.Seller = &sellerResponse{
			ID:          l.Seller.ID,
			FirstName:   l.Seller.FirstName,
			LastName:    l.Seller.LastName,
			AvatarURL:   l.Seller.AvatarURL,
			Rating:      l.Seller.Rating,
			RatingCount: l.Seller.RatingCount,
		}
	}
	return resp
}

func toListings(ls []*domain.Listing) []listingResponse {
	resp := make([]listingResponse, len(ls))
	for i, l := range ls {
		resp[i] = toListing(l)
	}
	return resp
}
