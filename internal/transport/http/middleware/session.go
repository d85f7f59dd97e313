package middleware

import (
	"log/slog"
	"net/http"

	"github.com/citymarket/marketplace/internal/domain"
	ctxlog "github.com/citymarket/marketplace/internal/log"
	"github.com/citymarket/marketplace/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	identityKey     = "identity"
	errUnauthorized = "Unauthorized"
)

// sessionReader is satisfied by *session.Store.
type sessionReader interface {
	Read(c *gin.Context) (session.Payload, bool)
}

// Session decodes the session cookie, if any, and stores the identity in the
// gin context. A missing or invalid cookie leaves the request anonymous.
// Logs written with the request context carry user_id and city_id.
func Session(store sessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := store.Read(c); ok {
			c.Set(identityKey, domain.Identity{
				UserID: p.UserID,
				CityID: p.CityID,
				Email:  p.Email,
				Name:   p.Name,
			})
			ctx := ctxlog.With(c.Request.Context(),
				slog.String("user_id", p.UserID),
				slog.String("city_id", p.CityID),
			)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireSession rejects anonymous requests with 401. It must run after
// Session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IdentityFrom(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller set by Session, or the zero Identity.
func IdentityFrom(c *gin.Context) domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	id, _ := v.(domain.Identity)
	return id
}
