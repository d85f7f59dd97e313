package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/citymarket/marketplace/internal/session"
	"github.com/citymarket/marketplace/internal/transport/http/middleware"
	"github.com/citymarket/marketplace/internal/usecase"
	"github.com/gin-gonic/gin"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// sessionIssuer is satisfied by *session.Store.
type sessionIssuer interface {
	Create(c *gin.Context, p session.Payload) (session.Payload, error)
	Destroy(c *gin.Context)
}

type AuthHandler struct {
	authUsecase authUsecaser
	sessions    sessionIssuer
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, sessions sessionIssuer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		sessions:    sessions,
		logger:      logger.With("component", "auth_handler"),
	}
}

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required,min=2,max=50"`
	LastName  string `json:"lastName"  binding:"required,min=2,max=50"`
	Email     string `json:"email"     binding:"required,email,max=254"`
	Phone     string `json:"phone"     binding:"required,max=32"`
	Password  string `json:"password"  binding:"required,min=8,max=72"`
	CityID    string `json:"cityId"    binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// POST /auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authUsecase.Signup(c.Request.Context(), usecase.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		CityID:    req.CityID,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": errEmailTaken})
		case errors.Is(err, domain.ErrPhoneTaken):
			c.JSON(http.StatusConflict, gin.H{"error": errPhoneTaken})
		case errors.Is(err, domain.ErrInvalidCity):
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCity})
		default:
			if writeUsecaseError(c, err) {
				return
			}
			h.logger.ErrorContext(c.Request.Context(), "signup", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": toSessionUser(user)})
}

// POST /auth/login
// Unknown email and wrong password get the same 401.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toSessionUser(user)})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Destroy(c)
	c.Status(http.StatusNoContent)
}

// GET /auth/me
// Anonymous callers and sessions for deleted users get {"user": null}.
func (h *AuthHandler) Me(c *gin.Context) {
	who := middleware.IdentityFrom(c)
	if !who.Authenticated() {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.authUsecase.Me(c.Request.Context(), who.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "me", "user_id", who.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toProfile(user)})
}

func (h *AuthHandler) startSession(c *gin.Context, user *domain.User) bool {
	email := user.Email
	_, err := h.sessions.Create(c, session.Payload{
		UserID: user.ID,
		CityID: user.CityID,
		Email:  &email,
		Name:   user.DisplayName(),
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "create session", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return false
	}
	return true
}
