package httptransport

import (
	"fmt"
	"log/slog"

	"github.com/citymarket/marketplace/internal/session"
	"github.com/citymarket/marketplace/internal/transport/http/handler"
	"github.com/citymarket/marketplace/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty means ClientIP is the
	// peer address, which the rate limiter keys on.
	TrustedProxies []string
	// HSTS adds Strict-Transport-Security; set in production.
	HSTS bool
	// LoginLimiter guards signup and login. Nil disables rate limiting.
	LoginLimiter middleware.RateLimiter
}

func NewRouter(
	logger *slog.Logger,
	cfg RouterConfig,
	sessions *session.Store,
	authHandler *handler.AuthHandler,
	cityHandler *handler.CityHandler,
	listingHandler *handler.ListingHandler,
) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(cfg.HSTS))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Session(sessions))

	signupMW := []gin.HandlerFunc{}
	loginMW := []gin.HandlerFunc{}
	if cfg.LoginLimiter != nil {
		signupMW = append(signupMW, middleware.RateLimit(cfg.LoginLimiter, "signup", logger))
		loginMW = append(loginMW, middleware.RateLimit(cfg.LoginLimiter, "login", logger))
	}

	auth := r.Group("/auth")
	auth.POST("/signup", append(signupMW, authHandler.Signup)...)
	auth.POST("/login", append(loginMW, authHandler.Login)...)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/me", authHandler.Me)

	r.GET("/cities", cityHandler.List)
	r.GET("/cities/:slug", cityHandler.GetBySlug)
	r.GET("/categories", cityHandler.ListCategories)

	// Public listing reads, scoped by the cityId query parameter
	r.GET("/listings", listingHandler.ListInCity)
	r.GET("/listings/:id", listingHandler.GetInCity)

	// Owner routes, scoped by the session
	owned := r.Group("/user/listings", middleware.RequireSession())
	owned.GET("", listingHandler.ListOwned)
	owned.POST("", listingHandler.Create)
	owned.GET("/:id", listingHandler.GetOwned)
	owned.PUT("/:id", listingHandler.Update)
	owned.DELETE("/:id", listingHandler.Delete)
	owned.POST("/:id/images", listingHandler.AddImage)

	return r, nil
}
